package advice

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "02-01-2006"

// FormatMoney renders an amount in rupees with exactly two decimals.
func FormatMoney(d decimal.Decimal) string {
	return "₹" + d.StringFixed(2)
}

// FormatDate renders t as dd-mm-yyyy, or "-" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	return t.Format(dateLayout)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}

	return s
}

// SMSText is the notification sent to a recipient once their line is approved.
func SMSText(recipientName, invoiceNo string, amount decimal.Decimal, sender string) string {
	return fmt.Sprintf("Dear %s, payment of %s against invoice %s has been released to your bank account. - %s",
		orDefault(recipientName, "Customer"), FormatMoney(amount), orDefault(invoiceNo, "-"), sender)
}
