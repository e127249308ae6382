package notification

import (
	"context"
	"errors"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/document"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/notification"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

// MailObserver is told about every mail the notifier sends
type MailObserver interface {
	MailSent(ctx context.Context, err error)
}

// AssignmentNotifier mails a user when a document is assigned to them and
// their settings ask for it
type AssignmentNotifier struct {
	settings notification.SettingsRepository
	users    contract.UserManagementService
	mail     contract.MailSender
	observer MailObserver
	logger   *zap.Logger
}

// NewAssignmentNotifier creates a new AssignmentNotifier. observer may be nil.
func NewAssignmentNotifier(
	settings notification.SettingsRepository,
	users contract.UserManagementService,
	mail contract.MailSender,
	observer MailObserver,
	logger *zap.Logger,
) *AssignmentNotifier {
	return &AssignmentNotifier{
		settings: settings,
		users:    users,
		mail:     mail,
		observer: observer,
		logger:   logger,
	}
}

// EventTypes implements shared.EventHandler
func (n *AssignmentNotifier) EventTypes() []string {
	return []string{document.EventTypeDocumentAssigned}
}

// Handle implements shared.EventHandler
func (n *AssignmentNotifier) Handle(ctx context.Context, event shared.DomainEvent) error {
	assigned, ok := event.(*document.DocumentAssignedEvent)
	if !ok {
		return nil
	}

	user, err := n.users.FindByID(ctx, assigned.AssigneeID)
	if err != nil {
		return err
	}
	settings, err := n.settings.FindByUserID(ctx, user.ID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		settings = notification.DefaultSettings(user.ID, user.Email)
	case err != nil:
		return err
	}
	if !settings.NotifyOnAssignment() {
		return nil
	}

	assignedBy := event.Actor()
	if assignedBy == "" {
		assignedBy = shared.SystemActor
	}
	_, err = n.mail.SendTemplated(ctx, contract.TemplatedMailMessage{
		TemplateIdentifier: notification.TemplateDocumentAssigned,
		Placeholders: map[string]any{
			"assigneeName":   user.FullName(),
			"assignedBy":     assignedBy,
			"documentId":     assigned.DocumentID().String(),
			"definitionName": assigned.DefinitionName,
		},
		Recipients: contract.Recipients{
			To: []contract.Recipient{{Email: settings.EmailAddress, Name: user.FullName()}},
		},
	})
	if n.observer != nil {
		n.observer.MailSent(ctx, err)
	}
	if err != nil {
		return err
	}
	n.logger.Debug("Assignment notification sent",
		zap.String("document_id", assigned.DocumentID().String()),
		zap.String("user_id", user.ID),
	)
	return nil
}

var _ shared.EventHandler = (*AssignmentNotifier)(nil)
