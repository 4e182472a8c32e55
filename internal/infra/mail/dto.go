package mail

// CloserNotification is the data rendered into a closer e-mail.
type CloserNotification struct {
	CloserName string
	LeadID     string
	LeadName   string
	LeadPhone  string
	Status     string
	// Assigned is set when the closer was just given the lead rather than
	// the lead changing status.
	Assigned bool
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string

	dialer dialer
}
