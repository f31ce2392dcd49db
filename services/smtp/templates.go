package smtp

import (
	"strings"
	"time"
)

// Reply bodies sent back to report senders after processing. {DATE} is
// replaced with the processing timestamp.
const acceptedReplyTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333;">
<p>Hello,</p>
<p>Your daily report was received and processed successfully on <strong>{DATE}</strong>.</p>
<p>The attached documents were accepted and filed. No further action is required.</p>
<p>This is an automated message, please do not reply.</p>
<p>Regards,<br>Document Processing</p>
</body>
</html>`

const rejectedReplyTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333;">
<p>Hello,</p>
<p>Your daily report received on <strong>{DATE}</strong> could not be processed.</p>
<p>None of the attached documents were accepted. Common causes are an unsupported file type, an empty file, or a document that was already submitted.</p>
<p>Please review the attachments and send the report again.</p>
<p>This is an automated message, please do not reply.</p>
<p>Regards,<br>Document Processing</p>
</body>
</html>`

const (
	acceptedReplySubjectPrefix = "Re: "
	replyDateLayout            = "02/01/2006 15:04"
)

func renderReplyBody(accepted bool, at time.Time) string {
	template := rejectedReplyTemplate
	if accepted {
		template = acceptedReplyTemplate
	}
	return strings.ReplaceAll(template, "{DATE}", at.Format(replyDateLayout))
}
