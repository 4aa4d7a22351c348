package pipeline

import "fmt"

type Payload struct {
	ChatID     int64
	SenderID   int64
	SenderName string
	MessageID  string
	Text       string
}

func (p Payload) SenderKey() string {
	return fmt.Sprintf("%d:%d", p.ChatID, p.SenderID)
}
