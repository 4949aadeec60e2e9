package intent

import "sshmate/internal/models"

// builtinRules is the default intent table. Patterns cover both Chinese and
// English phrasings of each operation.
var builtinRules = []models.IntentRule{
	{
		Intent: "check_os_version",
		Patterns: []string{
			`查看.*作業系統.*版本`,
			`檢查.*系統.*版本`,
			`看.*OS.*版本`,
			`check.*os.*version`,
			`show.*system.*version`,
			`what.*operating.*system`,
		},
		Commands: []string{
			"cat /etc/os-release",
			"uname -a",
			"lsb_release -a",
		},
		Description: "檢查作業系統版本",
	},
	{
		Intent: "install_cuda",
		Patterns: []string{
			`安裝.*CUDA`,
			`裝.*CUDA`,
			`install.*cuda`,
			`setup.*cuda`,
			`配置.*CUDA`,
		},
		Commands: []string{
			"nvidia-smi",
			"wget https://developer.download.nvidia.com/compute/cuda/repos/ubuntu2004/x86_64/cuda-ubuntu2004.pin",
			"sudo mv cuda-ubuntu2004.pin /etc/apt/preferences.d/cuda-repository-pin-600",
			"wget https://developer.download.nvidia.com/compute/cuda/12.2.0/local_installers/cuda-repo-ubuntu2004-12-2-local_12.2.0-535.54.03-1_amd64.deb",
			"sudo dpkg -i cuda-repo-ubuntu2004-12-2-local_12.2.0-535.54.03-1_amd64.deb",
			"sudo cp /var/cuda-repo-ubuntu2004-12-2-local/cuda-*-keyring.gpg /usr/share/keyrings/",
			"sudo apt-get update",
			"sudo apt-get -y install cuda",
		},
		Description: "安裝 NVIDIA CUDA 工具包",
		// Without a working NVIDIA driver the remaining install steps are pointless.
		MarkerCommand: "nvidia-smi",
	},
	{
		Intent: "check_devices",
		Patterns: []string{
			`檢查.*裝置.*設備`,
			`查看.*設備`,
			`看.*硬體.*設備`,
			`check.*devices`,
			`list.*devices`,
			`show.*hardware`,
			`what.*devices`,
		},
		Commands: []string{
			"lspci",
			"lsusb",
			"lsblk",
			"nvidia-smi",
			"lscpu",
			"free -h",
			"df -h",
		},
		Description: "檢查系統硬體設備",
	},
	{
		Intent: "system_status",
		Patterns: []string{
			`系統.*狀態`,
			`檢查.*系統`,
			`system.*status`,
			`check.*system`,
			`系統.*資訊`,
		},
		Commands: []string{
			"uptime",
			"free -h",
			"df -h",
			"ps aux --sort=-%cpu | head -10",
			"netstat -tuln",
		},
		Description: "檢查系統狀態和資源使用情況",
	},
	{
		Intent: "network_info",
		Patterns: []string{
			`網路.*資訊`,
			`檢查.*網路`,
			`network.*info`,
			`check.*network`,
			`IP.*位址`,
		},
		Commands: []string{
			"ip addr show",
			"netstat -rn",
			"ping -c 4 8.8.8.8",
		},
		Description: "檢查網路配置和連線狀態",
	},
}

// NewBuiltinCatalog creates a catalog pre-loaded with the default intent table.
func NewBuiltinCatalog() *Catalog {
	c := NewCatalog()
	if err := c.RegisterAll(builtinRules); err != nil {
		// Built-in patterns are compile-time constants; a failure here is a bug.
		panic(err)
	}
	return c
}
