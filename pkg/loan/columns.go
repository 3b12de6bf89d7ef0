// Package loan pins down the loan-extract data contract: canonical column
// names, the calendar arithmetic behind the derived columns, and the two
// canned aggregation jobs.
package loan

import "github.com/quantmill/loanpipe/pkg/agg"

// Canonical input column names. These are the external contract with the
// upstream extract; overrides come in through job config.
const (
	ColCustomerID    = "TI_CU_CUSTOMER_ID"
	ColAccountID     = "TI_LN_ACCOUNT_ID"
	ColBalance       = "TI_LN_BALANCE"
	ColPayments      = "TI_LN_VAL_PAYMENTS"
	ColArrears       = "TI_LN_NUM_MTHS_IN_ARREARS"
	ColDateOpen      = "TI_LN_DATE_OPEN"
	ColOriginalTerm  = "TI_LN_ORIGINAL_TERM"
	ColRemainingTerm = "TI_LN_REMAINING_TERM"
)

// Derived column names.
const (
	ColDateOpenYear  = "TI_LN_DATE_OPEN_YEAR"
	ColDateOpenMonth = "TI_LN_DATE_OPEN_MONTH"
	ColPaymentMonth  = "PAYMENT_MONTH"
)

// Aggregation output column names.
const (
	ColAvgBalance          = "AVERAGE_ACCOUNT_BALANCE"
	ColAvgMinPayment       = "AVERAGE_MIN_PAYMENT"
	ColLatePayments        = "LATE_PAYMENTS"
	ColTotalMonthlyBalance = "TOTAL_MONTHLY_BALANCE"
	ColTotalArrears        = "TOTAL_ARREARS"
	ColNumAccounts         = "NUM_ACCOUNTS"
)

// Columns names the input columns a job reads. The zero value is not useful;
// start from DefaultColumns.
type Columns struct {
	CustomerID    string
	AccountID     string
	Balance       string
	Payments      string
	Arrears       string
	DateOpen      string
	OriginalTerm  string
	RemainingTerm string
}

func DefaultColumns() Columns {
	return Columns{
		CustomerID:    ColCustomerID,
		AccountID:     ColAccountID,
		Balance:       ColBalance,
		Payments:      ColPayments,
		Arrears:       ColArrears,
		DateOpen:      ColDateOpen,
		OriginalTerm:  ColOriginalTerm,
		RemainingTerm: ColRemainingTerm,
	}
}

// AccountSpec is the per-(customer, account) summary: mean balance, mean
// minimum payment, summed arrears-months.
func AccountSpec(c Columns) agg.Spec {
	return agg.Spec{
		GroupBy: []string{c.CustomerID, c.AccountID},
		Columns: []agg.Column{
			{Source: c.Balance, As: ColAvgBalance, Op: agg.Mean},
			{Source: c.Payments, As: ColAvgMinPayment, Op: agg.Mean},
			{Source: c.Arrears, As: ColLatePayments, Op: agg.Sum},
		},
	}
}

// MonthlySpec is the per-(customer, payment month) summary: summed balance,
// summed arrears, count of distinct accounts. It expects the payment-month
// column to have been derived first.
func MonthlySpec(c Columns) agg.Spec {
	return agg.Spec{
		GroupBy: []string{c.CustomerID, ColPaymentMonth},
		Columns: []agg.Column{
			{Source: c.Balance, As: ColTotalMonthlyBalance, Op: agg.Sum},
			{Source: c.Arrears, As: ColTotalArrears, Op: agg.Sum},
			{Source: c.AccountID, As: ColNumAccounts, Op: agg.CountDistinct},
		},
	}
}
