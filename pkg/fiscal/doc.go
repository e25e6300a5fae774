// Package fiscal provides a client for the local fiscal hardware HTTP service
// used by taxi kiosks to open and close shifts, print and void receipts and
// run POS payments.
//
// Every command goes through a single Transport that enforces a per-request
// timeout and turns transport failures and device statuses into *Error values.
// Errors are classified with the pure functions IsCritical and IsPrintError:
// a print error means the fiscal document may already be committed and must
// not be voided.
//
// Example Usage:
//
//	client := fiscal.NewClient(fiscal.Config{Port: 4445, CashierName: "Kiosk"})
//
//	keeper := client.StartShiftKeeper(ctx)
//	defer client.StopShiftKeeper(keeper)
//
//	res, err := client.CreateTaxiReceipt(ctx, fiscal.TaxiReceiptData{
//	    OrderNumber:   "A-1024",
//	    Price:         850,
//	    PaymentMethod: fiscal.PaymentCard,
//	})
//	if fe, ok := fiscal.AsError(err); ok && fe.PrintError() {
//	    // the receipt is committed, only the paper output failed
//	}
package fiscal
