package fiscal

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultPaperWidth символов в строке на ленте 58 мм
const DefaultPaperWidth = 32

// Layout текстовая форма чека поездки фиксированной ширины
type Layout struct {
	Width  int
	Header []string
	Footer []string
}

// DefaultLayout форма по умолчанию для ширины width
func DefaultLayout(width int) Layout {
	if width <= 0 {
		width = DefaultPaperWidth
	}
	return Layout{
		Width:  width,
		Header: []string{"ТАКСИ", "Трансфер и перевозка пассажиров"},
		Footer: []string{"Спасибо за поездку!", "Это не фискальный документ"},
	}
}

// Compose собирает все строки чека в один многострочный текст
func (l Layout) Compose(data TaxiReceiptData) string {
	var lines []string
	sep := strings.Repeat("-", l.Width)

	for _, h := range l.Header {
		lines = append(lines, l.center(h)...)
	}
	lines = append(lines, sep)

	t := data.Time
	lines = append(lines, l.pair("Дата:", t.Format("02.01.2006"))...)
	lines = append(lines, l.pair("Время:", t.Format("15:04"))...)
	lines = append(lines, sep)

	if data.From != "" {
		lines = append(lines, l.pair("Откуда:", data.From)...)
	}
	if data.To != "" {
		lines = append(lines, l.pair("Куда:", data.To)...)
	}
	lines = append(lines, l.pair("Заказ №:", data.OrderNumber)...)

	car := strings.TrimSpace(strings.Join([]string{data.CarModel, data.CarNumber}, " "))
	if car != "" {
		lines = append(lines, l.pair("Автомобиль:", car)...)
	}
	if data.DriverName != "" {
		lines = append(lines, l.pair("Водитель:", data.DriverName)...)
	}
	if data.QueueNumber != "" {
		lines = append(lines, l.pair("Очередь:", data.QueueNumber)...)
	}
	lines = append(lines, l.pair("Сумма:", fmt.Sprintf("%.2f", RoundMoney(data.Price)))...)
	lines = append(lines, sep)

	for _, f := range l.Footer {
		lines = append(lines, l.center(f)...)
	}
	return strings.Join(lines, "\n")
}

// pair печатает метку слева и значение справа. Если не помещается,
// значение переносится на следующие строки.
func (l Layout) pair(label, value string) []string {
	label, value = norm.NFC.String(label), norm.NFC.String(strings.TrimSpace(value))
	gap := l.Width - runeLen(label) - runeLen(value)
	if gap >= 1 {
		return []string{label + strings.Repeat(" ", gap) + value}
	}
	return append([]string{label}, wrap(value, l.Width)...)
}

func (l Layout) center(text string) []string {
	var out []string
	for _, line := range wrap(norm.NFC.String(text), l.Width) {
		pad := (l.Width - runeLen(line)) / 2
		out = append(out, strings.Repeat(" ", pad)+line)
	}
	return out
}

// wrap разбивает текст по словам на строки не длиннее width символов
func wrap(text string, width int) []string {
	var (
		lines []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, string(cur))
			cur = cur[:0]
		}
	}

	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > width {
			flush()
			lines = append(lines, string(w[:width]))
			w = w[width:]
		}
		switch {
		case len(cur) == 0:
			cur = append(cur, w...)
		case len(cur)+1+len(w) <= width:
			cur = append(cur, ' ')
			cur = append(cur, w...)
		default:
			flush()
			cur = append(cur, w...)
		}
	}
	flush()
	return lines
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func (c *fiscalClient) receiptTime(data TaxiReceiptData) TaxiReceiptData {
	if data.Time.IsZero() {
		data.Time = c.config.Now()
	}
	return data
}
