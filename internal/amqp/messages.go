package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ledger/internal/core"
)

// ExpenseCreatedMessage carries a full copy of a newly stored expense so
// consumers never read back from the database.
type ExpenseCreatedMessage struct {
	ID          int64     `json:"id"`
	Date        string    `json:"date"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory"`
	Note        string    `json:"note"`
	Timestamp   time.Time `json:"timestamp"`
}

var errMissingID = errors.New("message has no expense id")

func NewExpenseCreatedMessage(e core.Expense) *ExpenseCreatedMessage {
	return &ExpenseCreatedMessage{
		ID:          e.ID,
		Date:        e.Date,
		Amount:      e.Amount,
		Category:    e.Category,
		Subcategory: e.Subcategory,
		Note:        e.Note,
		Timestamp:   time.Now().UTC(),
	}
}

func (m *ExpenseCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Expense converts the message back into the domain type.
func (m *ExpenseCreatedMessage) Expense() core.Expense {
	return core.Expense{
		ID:          m.ID,
		Date:        m.Date,
		Amount:      m.Amount,
		Category:    m.Category,
		Subcategory: m.Subcategory,
		Note:        m.Note,
	}
}

// ExpenseCreatedMessageFromJSON decodes a message body. Bodies without a
// positive id are rejected; they can never be mirrored.
func ExpenseCreatedMessageFromJSON(data []byte) (*ExpenseCreatedMessage, error) {
	var msg ExpenseCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode expense.created: %w", err)
	}
	if msg.ID <= 0 {
		return nil, errMissingID
	}
	return &msg, nil
}
