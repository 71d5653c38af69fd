// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS, log
// level); AppConfig is everything specific to VolunteerHub. Values come from
// environment variables, config files, or command-line flags, merged in
// LoadConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // secret key for signing session cookies
	SessionName   string // cookie name
	SessionDomain string // cookie domain (blank means current host)
	SessionMaxAge time.Duration

	// Email/SMTP configuration
	MailSMTPHost string // e.g. localhost for Mailpit, SES endpoint in prod
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// SiteName appears in outbound email subjects and bodies.
	SiteName string

	// MembershipTiers is the comma-separated list of tier names whose tier
	// teams are ensured at startup.
	MembershipTiers string

	// RenewalReminderWindow is how far before term expiry the reminder
	// email goes out.
	RenewalReminderWindow time.Duration

	// BoardEmail, when set, names a user who is created (if missing) and
	// granted an open-ended board role at startup.
	BoardEmail string
}
