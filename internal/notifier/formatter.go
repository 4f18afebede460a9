package notifier

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"StockStream/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Formatter renders result records as CSV lines.
type Formatter struct {
	WindowSize int
}

// Header returns the column line, naming the moving-average window.
func (f Formatter) Header() string {
	return fmt.Sprintf("period start,period end,symbol,price,change %%,min,max,%dd avg", f.WindowSize)
}

// Row renders one record. Prices carry a "$" prefix, the change is a
// percentage, every number has two decimals.
func (f Formatter) Row(rec model.ResultRecord) string {
	return strings.Join([]string{
		rec.PeriodStart.Format(time.RFC3339),
		rec.PeriodEnd.Format(time.RFC3339),
		rec.Symbol,
		money(rec.LastPrice),
		percent(rec.PercentChange) + "%",
		money(rec.Minimum),
		money(rec.Maximum),
		money(rec.TrailingSMA),
	}, ",")
}

func money(v float64) string {
	return "$" + fixed2(v)
}

func percent(rel float64) string {
	if math.IsInf(rel, 0) || math.IsNaN(rel) {
		return fixed2(rel)
	}
	return decimal.NewFromFloat(rel).Mul(hundred).StringFixed(2)
}

// fixed2 renders two decimals; decimal cannot hold NaN or Inf.
func fixed2(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatRecordMessage formats a record into a Telegram message.
func FormatRecordMessage(rec model.ResultRecord, windowSize int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📈 <b>%s</b> | %s → %s\n\n", rec.Symbol,
		rec.PeriodStart.Format("2006-01-02"), rec.PeriodEnd.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Price: %s (%s%%)\n", money(rec.LastPrice), percent(rec.PercentChange)))
	b.WriteString(fmt.Sprintf("Range: %s .. %s\n", money(rec.Minimum), money(rec.Maximum)))
	b.WriteString(fmt.Sprintf("%dd avg: %s\n", windowSize, money(rec.TrailingSMA)))
	return b.String()
}
