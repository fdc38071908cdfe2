package mail

// Config holds the SMTP settings and the supervisor address alerts go to.
type Config struct {
	Host       string
	Port       int
	User       string
	Password   string
	From       string
	Supervisor string
}
