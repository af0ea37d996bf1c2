package notify

import (
	"fmt"
	"log"

	"github.com/soleserve/api/internal/enum"
)

// StageChange carries what a customer-facing message needs to say
// about an enquiry that just moved forward.
type StageChange struct {
	EnquiryID    int64
	TrackingCode string
	CustomerName string
	Phone        string
	Stage        string
}

// Notifier receives stage-change events after the owning transaction
// commits. The WhatsApp notification is a logging side effect, not a
// messaging integration; LogNotifier is the only implementation.
type Notifier interface {
	StageChanged(change StageChange)
}

type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) StageChanged(change StageChange) {
	log.Printf("WHATSAPP to=%s enquiry=%d: %s", change.Phone, change.EnquiryID, Message(change))
}

// Message renders the customer-facing text for a stage change.
func Message(change StageChange) string {
	name := change.CustomerName
	switch change.Stage {
	case enum.StagePickup:
		return fmt.Sprintf("Hi %s, your pickup has been scheduled. Track your order with code %s.", name, change.TrackingCode)
	case enum.StageService:
		return fmt.Sprintf("Hi %s, we have received your items and service has begun. Tracking code: %s.", name, change.TrackingCode)
	case enum.StageBilling:
		return fmt.Sprintf("Hi %s, service on your items is complete. Your invoice is being prepared.", name)
	case enum.StageDelivery:
		return fmt.Sprintf("Hi %s, your items are ready and scheduled for delivery.", name)
	case enum.StageCompleted:
		return fmt.Sprintf("Hi %s, your order has been delivered. Thank you for choosing us!", name)
	}
	return fmt.Sprintf("Hi %s, your order status has been updated.", name)
}
