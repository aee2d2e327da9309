package models

import (
	"fmt"
	"path/filepath"
)

const (
	EtlctlPath      = "/etc/etlctl"
	SystemdPath     = "/etc/systemd/system"
	DownloadPath    = "/tmp/etlegacy-installer"
	DefaultInstall  = "/home/etlegacy"
	VsftpdConfPath  = "/etc/vsftpd.conf"
	SshdConfPath    = "/etc/ssh/sshd_config"
	DefaultGroup    = "etusers"
	DefaultHostname = "ET Legacy Server"
	DefaultPort     = 27960
)

const (
	ServerConfigName = "etl_server.cfg"
	StartScriptName  = "etl_start.sh"
	VersionMarker    = ".etlctl-version"
	ConsoleLogName   = "etconsole.log"
	BaseGameDir      = "etmain"
	ModDir           = "legacy"
	OldSuffix        = "_old"
	BackupInfix      = "_backup_"
)

// ServerDir is the directory an instance lives in under installRoot
func ServerDir(installRoot string, port uint16) string {
	return filepath.Join(installRoot, "et", fmt.Sprintf("%d", port))
}

// ConfigPath is the server config file inside serverDir
func ConfigPath(serverDir string) string {
	return filepath.Join(serverDir, BaseGameDir, ServerConfigName)
}

// StartScriptPath is the generated start script inside serverDir
func StartScriptPath(serverDir string) string {
	return filepath.Join(serverDir, StartScriptName)
}

// InstallRootOf walks back from <root>/et/<port> to <root>
func InstallRootOf(serverDir string) string {
	return filepath.Dir(filepath.Dir(filepath.Clean(serverDir)))
}

func ServerUnitName(port uint16) string {
	return fmt.Sprintf("etlserver-%d.service", port)
}

func RestartUnitName(port uint16) string {
	return fmt.Sprintf("etlrestart-%d.service", port)
}

func TimerUnitName(port uint16) string {
	return fmt.Sprintf("etlmonitor-%d.timer", port)
}
