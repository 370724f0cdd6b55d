package port

import (
	"context"
	"io"

	"github.com/shopspring/decimal"

	"github.com/garyjia/backoffice-approvals/internal/domain/entity"
)

// MailKind selects the notification template
type MailKind string

const (
	MailSettled  MailKind = "settled"
	MailRejected MailKind = "rejected"
)

// Mail is a requester notification. Amount/Currency are set for settlements,
// RejectedBy/Reason for rejections.
type Mail struct {
	Kind          MailKind
	To            string
	RecipientName string
	RequestType   string
	RequestID     int64
	Amount        decimal.Decimal
	Currency      string
	RejectedBy    string
	Reason        string
}

// MailDispatcher delivers requester notifications
type MailDispatcher interface {
	Send(ctx context.Context, mail Mail) error
}

// RegisterWriter renders requests as a settlement register workbook
type RegisterWriter interface {
	Write(w io.Writer, module entity.Module, requests []*entity.Request) error
}

// FileStorage stores generated files under a base directory
type FileStorage interface {
	Save(ctx context.Context, path string, content []byte) error
	Exists(ctx context.Context, path string) bool
	GetFullPath(relativePath string) string
}
