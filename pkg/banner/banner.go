package banner

import (
	"fmt"

	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/config"
)

const banner = `
███████╗ ██████╗ ██████╗ ██╗   ██╗███╗   ███╗███████╗██╗   ██╗███╗   ██╗ ██████╗
██╔════╝██╔═══██╗██╔══██╗██║   ██║████╗ ████║██╔════╝╚██╗ ██╔╝████╗  ██║██╔════╝
█████╗  ██║   ██║██████╔╝██║   ██║██╔████╔██║███████╗ ╚████╔╝ ██╔██╗ ██║██║
██╔══╝  ██║   ██║██╔══██╗██║   ██║██║╚██╔╝██║╚════██║  ╚██╔╝  ██║╚██╗██║██║
██║     ╚██████╔╝██║  ██║╚██████╔╝██║ ╚═╝ ██║███████║   ██║   ██║ ╚████║╚██████╗
╚═╝      ╚═════╝ ╚═╝  ╚═╝ ╚═════╝ ╚═╝     ╚═╝╚══════╝   ╚═╝   ╚═╝  ╚═══╝ ╚═════╝
`

// Print prints the startup banner with the effective runtime settings
// and a readiness checklist.
func Print(cfg *config.Config, addr, dbPath, source, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if source == "" {
		source = "flags"
	}
	fmt.Printf("Config:   %s\n", source)

	fmt.Println("\n== Examples ===================================================")
	fmt.Println("curl 'http://<host>:<port>/v1/forum/<eventId>?since=<cursor>'")
	fmt.Println("curl -X POST 'http://<host>:<port>/v1/forum/<eventId>' -d '{\"content\": \"hello\", \"type\": \"message\"}'")

	fmt.Println("\n== Production? =================================================")
	be := len(cfg.Security.APIKeys.Backend)
	fe := len(cfg.Security.APIKeys.Frontend)
	ak := len(cfg.Security.APIKeys.Admin)
	if be > 0 {
		fmt.Printf("- Backend API keys: OK (%d)\n", be)
	} else {
		fmt.Println("- Backend API keys: MISSING (required for event services)")
	}
	if fe > 0 {
		fmt.Printf("- Frontend API keys: OK (%d)\n", fe)
	} else {
		fmt.Println("- Frontend API keys: MISSING (required for portal clients)")
	}
	if ak > 0 {
		fmt.Printf("- Admin API keys: OK (%d)\n", ak)
	} else {
		fmt.Println("- Admin API keys: MISSING (required for admin tooling)")
	}

	if len(cfg.Security.SigningKeys) > 0 {
		fmt.Printf("- User signing keys: OK (%d)\n", len(cfg.Security.SigningKeys))
	} else {
		fmt.Println("- User signing keys: MISSING (frontend callers will be rejected)")
	}

	if cfg.Server.TLS.CertFile != "" && cfg.Server.TLS.KeyFile != "" {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured")
	}

	if cfg.Maintenance.Enabled {
		cron := cfg.Maintenance.Cron
		if cron == "" {
			cron = "0 2 * * *"
		}
		fmt.Printf("- Maintenance: enabled (cron=%s)\n", cron)
	} else {
		fmt.Println("- Maintenance: disabled")
	}

	fmt.Println("\n== Logs: =================================================")
}
