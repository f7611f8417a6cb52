package kis

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/rustyeddy/kisrebal/broker"
)

// DailyCloses fetches the adjusted daily closing prices for code over
// [from, to] (FHKST03010100). The endpoint caps each response at roughly a
// hundred rows, so the window is walked backwards one page at a time until
// the start date is covered.
func (c *Client) DailyCloses(ctx context.Context, code string, from, to time.Time) ([]broker.DailyClose, error) {
	var closes []broker.DailyClose

	cursor := to
	for !cursor.Before(from) {
		params := url.Values{}
		params.Set("FID_COND_MRKT_DIV_CODE", "J")
		params.Set("FID_INPUT_ISCD", code)
		params.Set("FID_INPUT_DATE_1", from.Format("20060102"))
		params.Set("FID_INPUT_DATE_2", cursor.Format("20060102"))
		params.Set("FID_PERIOD_DIV_CODE", "D")
		params.Set("FID_ORG_ADJ_PRC", "0") // adjusted for splits and dividends

		var out dailyPriceResponse
		err := c.get(ctx, "/uapi/domestic-stock/v1/quotations/inquire-daily-itemchartprice",
			"FHKST03010100", params, &out)
		if err != nil {
			return nil, err
		}
		if !out.ok() {
			return nil, fmt.Errorf("daily prices %s: %s (%s)", code, out.Message, out.MessageCode)
		}

		rows := 0
		oldest := cursor
		for _, row := range out.Output2 {
			day, err := time.ParseInLocation("20060102", row.Date, time.Local)
			if err != nil {
				continue
			}
			price := parseFloat(row.Close)
			if price <= 0 {
				continue
			}
			closes = append(closes, broker.DailyClose{Date: day, Close: price})
			if day.Before(oldest) {
				oldest = day
			}
			rows++
		}
		if rows == 0 {
			break
		}
		cursor = oldest.AddDate(0, 0, -1)
	}

	sort.Slice(closes, func(i, j int) bool { return closes[i].Date.Before(closes[j].Date) })
	return closes, nil
}
