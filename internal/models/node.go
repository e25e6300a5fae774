package models

import (
	"fmt"
	"time"
)

// FiscalNode профиль фискального узла: локальный сервис на своём порту,
// опционально конкретная ККТ по регистрационному номеру
type FiscalNode struct {
	Name               string    `json:"name"`                          // Уникальное имя узла, например "cloud"
	Host               string    `json:"host,omitempty"`                // По умолчанию localhost
	Port               int       `json:"port"`                          // Например 4445
	RegistrationNumber string    `json:"registration_number,omitempty"` // РН ККТ
	SerialNumber       string    `json:"serial_number,omitempty"`       // Заводской номер, если известен
	LastUsed           time.Time `json:"last_used"`                     // Время последнего успешного обращения
}

// DisplayString строка для вывода в CLI
func (n *FiscalNode) DisplayString() string {
	host := n.Host
	if host == "" {
		host = "localhost"
	}
	rn := n.RegistrationNumber
	if rn == "" {
		rn = "-"
	}
	return fmt.Sprintf("%s - %s:%d - РН %s", n.Name, host, n.Port, rn)
}
