package services

import (
	"fmt"
	"strings"

	"sshmate/internal/models"
)

// GenerateSummary renders a short human-readable summary of an executed
// intent. Well-known intents get tailored wording; everything else falls
// back to a generic completion line.
func GenerateSummary(resolved models.ResolvedIntent, results []models.CommandOutcome) string {
	successful := 0
	for _, r := range results {
		if r.Success() {
			successful++
		}
	}
	total := len(results)

	switch resolved.Action {
	case "check_os_version":
		if successful == 0 {
			return "無法檢查作業系統版本"
		}
		for _, r := range results {
			if r.Success() && strings.TrimSpace(r.Stdout) != "" {
				return fmt.Sprintf("系統資訊: %s", strings.TrimSpace(r.Stdout))
			}
		}
		return "已成功檢查作業系統版本"

	case "install_cuda":
		switch {
		case successful == total:
			return "CUDA 安裝完成"
		case successful > 0:
			return fmt.Sprintf("CUDA 安裝部分完成 (%d/%d 步驟成功)", successful, total)
		default:
			return "CUDA 安裝失敗"
		}

	case "check_devices":
		if successful > 0 {
			return fmt.Sprintf("已檢查系統設備 (%d 個檢查項目成功)", successful)
		}
		return "無法檢查系統設備"

	default:
		description := resolved.Action
		if resolved.Commands != nil && resolved.Commands.Description != "" {
			description = resolved.Commands.Description
		}
		if successful == total {
			return fmt.Sprintf("操作完成 (%s)", description)
		}
		return fmt.Sprintf("操作部分完成 (%d/%d 成功)", successful, total)
	}
}
