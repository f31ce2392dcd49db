package enum

type EmailSecurity string

const (
	EmailSecurityNone     EmailSecurity = "none"
	EmailSecurityTLS      EmailSecurity = "tls"
	EmailSecurityStartTLS EmailSecurity = "starttls"
)

func (e EmailSecurity) String() string {
	return string(e)
}

func DecodeEmailSecurity(s string) EmailSecurity {
	switch s {
	case "tls":
		return EmailSecurityTLS
	case "starttls":
		return EmailSecurityStartTLS
	default:
		return EmailSecurityNone
	}
}
