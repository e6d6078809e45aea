package types

// Probe outcome / check statuses.
const (
	StatusOK       = "ok"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// Alert severities.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// ResolvedByAutoRecovery marks alerts closed by a recovering check rather
// than an operator.
const ResolvedByAutoRecovery = "auto_recovery"

// Command lifecycle states.
const (
	CommandPending    = "pending"
	CommandProcessing = "processing"
	CommandCompleted  = "completed"
	CommandFailed     = "failed"
)

// Check types.
const (
	CheckUptime          = "uptime"
	CheckSSL             = "ssl"
	CheckDNS             = "dns"
	CheckSMTP            = "smtp"
	CheckSecurityHeaders = "security_headers"
	CheckForms           = "forms"
	CheckPerformance     = "performance"
	CheckContentChange   = "content_change"
)

var checkTypes = map[string]bool{
	CheckUptime:          true,
	CheckSSL:             true,
	CheckDNS:             true,
	CheckSMTP:            true,
	CheckSecurityHeaders: true,
	CheckForms:           true,
	CheckPerformance:     true,
	CheckContentChange:   true,
}

func ValidCheckType(t string) bool {
	return checkTypes[t]
}

// Command types the WordPress agent understands.
const (
	CommandUpdateCore        = "update_core"
	CommandUpdatePlugin      = "update_plugin"
	CommandUpdateTheme       = "update_theme"
	CommandInstallPlugin     = "install_plugin"
	CommandBackupSite        = "backup_site"
	CommandClearCache        = "clear_cache"
	CommandSecurityScan      = "security_scan"
	CommandToggleMaintenance = "toggle_maintenance"
	CommandSyncContent       = "sync_content"
	CommandHealthReport      = "health_report"
)

var commandTypes = map[string]bool{
	CommandUpdateCore:        true,
	CommandUpdatePlugin:      true,
	CommandUpdateTheme:       true,
	CommandInstallPlugin:     true,
	CommandBackupSite:        true,
	CommandClearCache:        true,
	CommandSecurityScan:      true,
	CommandToggleMaintenance: true,
	CommandSyncContent:       true,
	CommandHealthReport:      true,
}

func ValidCommandType(t string) bool {
	return commandTypes[t]
}
