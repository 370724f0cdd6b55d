package metrics

import (
	"context"

	"github.com/garyjia/backoffice-approvals/internal/application/port"
)

type instrumentedMailer struct {
	next    port.MailDispatcher
	metrics *Metrics
}

// InstrumentMailer counts sent and failed notifications around next
func InstrumentMailer(m *Metrics, next port.MailDispatcher) port.MailDispatcher {
	return &instrumentedMailer{next: next, metrics: m}
}

func (i *instrumentedMailer) Send(ctx context.Context, mail port.Mail) error {
	err := i.next.Send(ctx, mail)
	i.metrics.RecordNotification(string(mail.Kind), err)
	return err
}
