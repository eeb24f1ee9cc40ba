// Package keyboard builds reply keyboards.
package keyboard

import tele "gopkg.in/telebot.v4"

// RemoveKeyboard hides whatever reply keyboard the chat shows.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ReplyButtons lays out one text button per label, one keyboard row per
// slice. Empty rows are skipped.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	kb := make([][]tele.ReplyButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		buttons := make([]tele.ReplyButton, len(row))
		for i, label := range row {
			buttons[i] = tele.ReplyButton{Text: label}
		}
		kb = append(kb, buttons)
	}
	return &tele.ReplyMarkup{ResizeKeyboard: true, ReplyKeyboard: kb}
}
