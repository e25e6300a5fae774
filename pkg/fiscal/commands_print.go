package fiscal

import (
	"context"
	"fmt"
)

type printRasterRequest struct {
	Image string `json:"image"`
}

type printLineRequest struct {
	Text     string `json:"text"`
	Align    Align  `json:"align"`
	CutPaper bool   `json:"cutPaper"`
}

type printTextRequest struct {
	Text     string `json:"text"`
	CutPaper bool   `json:"cutPaper"`
}

// PrintRaster печатает изображение без отрезки
func (c *fiscalClient) PrintRaster(ctx context.Context, base64Image string) error {
	return printFailure(c.transport.Call(ctx, endpointPrintRaster, printRasterRequest{Image: base64Image}, nil))
}

// PrintLine печатает одну строку
func (c *fiscalClient) PrintLine(ctx context.Context, text string, align Align, cut bool) error {
	return printFailure(c.transport.Call(ctx, endpointPrintLine, printLineRequest{
		Text:     text,
		Align:    align,
		CutPaper: cut,
	}, nil))
}

// PrintText печатает многострочный текст одной командой
func (c *fiscalClient) PrintText(ctx context.Context, text string, cut bool) error {
	return printFailure(c.transport.Call(ctx, endpointPrintText, printTextRequest{
		Text:     text,
		CutPaper: cut,
	}, nil))
}

// CutPaper отрезает чек
func (c *fiscalClient) CutPaper(ctx context.Context) error {
	return printFailure(c.transport.Call(ctx, endpointCutPaper, nil, nil))
}

// PrintTaxiReceiptLines собирает форму поездки и печатает её одним запросом printText
func (c *fiscalClient) PrintTaxiReceiptLines(ctx context.Context, data TaxiReceiptData, cut bool) error {
	text := c.layout.Compose(c.receiptTime(data))
	return c.PrintText(ctx, text, cut)
}

// PrintTaxiReceiptWithLogo логотип и текст идут на один физический чек,
// отрезка всегда последняя.
func (c *fiscalClient) PrintTaxiReceiptWithLogo(ctx context.Context, logo string, data TaxiReceiptData) error {
	if err := c.PrintRaster(ctx, logo); err != nil {
		return err
	}
	if err := c.PrintTaxiReceiptLines(ctx, data, false); err != nil {
		return err
	}
	return c.CutPaper(ctx)
}

// PrintFullReceiptPNG печатает готовое изображение чека и отрезает
func (c *fiscalClient) PrintFullReceiptPNG(ctx context.Context, png string) error {
	if err := c.PrintRaster(ctx, png); err != nil {
		return err
	}
	return c.CutPaper(ctx)
}

// printFailure приводит любую ошибку печати к StatusPrinterError,
// чтобы вызывающий код не пытался аннулировать уже пробитый чек.
func printFailure(err error) error {
	if err == nil {
		return nil
	}
	fe, ok := AsError(err)
	if !ok {
		return &Error{Status: StatusPrinterError, Message: err.Error(), Err: err}
	}
	if fe.Status == StatusPrinterError {
		return fe
	}
	return &Error{
		Status:   StatusPrinterError,
		Message:  fmt.Sprintf("%s: %s", fe.Status, fe.Message),
		ExtCode:  fe.ExtCode,
		ExtCode2: fe.ExtCode2,
		Endpoint: fe.Endpoint,
		Err:      fe.Err,
	}
}
