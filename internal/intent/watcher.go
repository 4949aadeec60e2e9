package intent

import (
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchRulesFile watches a custom rules file and re-registers its rules when it
// changes. Intended to run as a goroutine for the lifetime of the process.
func WatchRulesFile(path string, catalog *Catalog) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("⚠️  Failed to create rules file watcher: %v", err)
		return
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		log.Printf("⚠️  Failed to get absolute path for %s: %v", path, err)
		watcher.Close()
		return
	}

	// Watch the directory containing the file (more reliable than watching the file directly)
	dir := filepath.Dir(absPath)
	filename := filepath.Base(absPath)

	if err := watcher.Add(dir); err != nil {
		log.Printf("⚠️  Failed to watch directory %s: %v", dir, err)
		watcher.Close()
		return
	}

	log.Printf("👁️  Watching %s for custom intent rules (hot-reload enabled)", path)

	// Debounce timer to avoid multiple reloads for rapid file changes
	var debounceTimer *time.Timer
	debounceDuration := 500 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filename {
				continue
			}

			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}

				debounceTimer = time.AfterFunc(debounceDuration, func() {
					log.Printf("🔄 Detected changes in %s, registering custom intent rules...", path)

					n, err := catalog.LoadFile(path)
					if err != nil {
						log.Printf("❌ Failed to reload custom intent rules: %v", err)
					} else {
						log.Printf("✅ Registered %d custom intent rule(s) from %s", n, path)
					}
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  Rules file watcher error: %v", err)
		}
	}
}
