package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// printResult выводит результат: JSON при --json, иначе построчно
func (a *app) printResult(title string, v any, lines ...string) error {
	if a.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	fmt.Printf("--- %s ---\n", title)
	for _, l := range lines {
		fmt.Println(l)
	}
	return nil
}
