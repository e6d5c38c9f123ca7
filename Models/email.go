package Models

// MailServer is the SMTP account the digest mailer sends through.
// ImplicitTLS dials TLS directly (port 465), otherwise STARTTLS is used
// when the server offers it.
type MailServer struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	SenderName  string
	ImplicitTLS bool
	Insecure    bool
}

type MailMessage struct {
	To      []string
	CC      []string
	Subject string
	Text    string
}
