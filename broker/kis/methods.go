package kis

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rustyeddy/kisrebal/broker"
)

// GetAccountSnapshot fetches the domestic stock balance (TTTC8434R).
// Positions with zero quantity are dropped; the summary block supplies the
// total asset value and cash balance.
func (c *Client) GetAccountSnapshot(ctx context.Context) (broker.AccountSnapshot, error) {
	params := url.Values{}
	params.Set("CANO", c.creds.Account)
	params.Set("ACNT_PRDT_CD", c.creds.ProductCode)
	params.Set("AFHR_FLPR_YN", "N")
	params.Set("OFL_YN", "N")
	params.Set("INQR_DVSN", "02")
	params.Set("UNPR_DVSN", "01")
	params.Set("FUND_STTL_ICLD_YN", "N")
	params.Set("FNCG_AMT_AUTO_RDPT_YN", "N")
	params.Set("PRCS_DVSN", "01")
	params.Set("CTX_AREA_FK100", "")
	params.Set("CTX_AREA_NK100", "")

	var out balanceResponse
	err := c.get(ctx, "/uapi/domestic-stock/v1/trading/inquire-balance",
		c.trID("TTTC8434R", "VTTC8434R"), params, &out)
	if err != nil {
		return broker.AccountSnapshot{}, err
	}
	if !out.ok() {
		return broker.AccountSnapshot{}, fmt.Errorf("inquire-balance: %s (%s)", out.Message, out.MessageCode)
	}

	snap := broker.AccountSnapshot{Account: c.creds.Account}
	if len(out.Output2) > 0 {
		s := out.Output2[0]
		snap.TotalAsset = parseFloat(s.TotalAsset)
		snap.Cash = parseFloat(s.Deposit)
		snap.Purchased = parseFloat(s.Purchased)
		snap.Valuation = parseFloat(s.Valuation)
		snap.ProfitLoss = parseFloat(s.ProfitLoss)
	}
	for _, h := range out.Output1 {
		qty := parseInt(h.Quantity)
		if qty <= 0 {
			continue
		}
		snap.Holdings = append(snap.Holdings, broker.Holding{
			Code:      h.Code,
			Name:      h.Name,
			Quantity:  qty,
			AvgPrice:  parseFloat(h.AvgPrice),
			LastPrice: parseFloat(h.Price),
		})
	}
	return snap, nil
}

// GetQuote fetches the order book (FHKST01010200) and derives the tick size
// from the price level.
func (c *Client) GetQuote(ctx context.Context, code string) (broker.Quote, error) {
	params := url.Values{}
	params.Set("FID_COND_MRKT_DIV_CODE", "J")
	params.Set("FID_INPUT_ISCD", code)

	var out askingPriceResponse
	err := c.get(ctx, "/uapi/domestic-stock/v1/quotations/inquire-asking-price-exp-ccn",
		"FHKST01010200", params, &out)
	if err != nil {
		return broker.Quote{}, err
	}
	if !out.ok() {
		return broker.Quote{}, fmt.Errorf("asking price %s: %s (%s)", code, out.Message, out.MessageCode)
	}

	last := parseFloat(out.Output2.LastPrice)
	if last == 0 {
		last = parseFloat(out.Output2.ExpectedPrice)
	}
	quote := broker.Quote{
		Code:    code,
		Last:    last,
		BestBid: parseFloat(out.Output1.BestBid),
		BestAsk: parseFloat(out.Output1.BestAsk),
	}

	ref := quote.Last
	if ref == 0 {
		ref = quote.BestBid
	}
	if ref > 0 {
		quote.TickSize = tickSize(ref)
	}
	return quote, nil
}

// Message code the revocable-orders endpoint answers with on pension-type
// accounts, which it does not serve.
const pensionAccountCode = "OPSQ0002"

// ListOpenOrders fetches the revocable (unfilled or partially filled)
// orders for the account (TTTC8436R). The broker's query covers its own
// recent-days window; whatever it returns is treated as the authoritative
// open set. Pension accounts are rejected by this endpoint and fall back to
// the pension daily-execution query.
func (c *Client) ListOpenOrders(ctx context.Context) ([]broker.OpenOrder, error) {
	params := url.Values{}
	params.Set("CANO", c.creds.Account)
	params.Set("ACNT_PRDT_CD", c.creds.ProductCode)
	params.Set("CTX_AREA_FK100", "")
	params.Set("CTX_AREA_NK100", "")
	params.Set("INQR_DVSN_1", "0")
	params.Set("INQR_DVSN_2", "0")

	var out openOrdersResponse
	err := c.get(ctx, "/uapi/domestic-stock/v1/trading/inquire-psbl-rvsecncl",
		c.trID("TTTC8436R", "VTTC8436R"), params, &out)
	if err != nil {
		return nil, err
	}
	if !out.ok() {
		if out.MessageCode == pensionAccountCode {
			return c.listPensionOpenOrders(ctx)
		}
		return nil, fmt.Errorf("open orders: %s (%s)", out.Message, out.MessageCode)
	}

	orders := make([]broker.OpenOrder, 0, len(out.Output))
	for _, o := range out.Output {
		side := broker.Buy
		if o.SideCode == "01" {
			side = broker.Sell
		}
		orders = append(orders, broker.OpenOrder{
			ID:        o.OrderNo,
			OrgNo:     o.OrgNo,
			Code:      o.Code,
			Side:      side,
			Remaining: parseInt(o.Remaining),
			PlacedAt:  parseOrderTime(o.OrderTime),
		})
	}
	return orders, nil
}

// listPensionOpenOrders queries the pension daily-execution endpoint
// (TTTC2201R) for unexecuted orders over the last 30 days. Pension accounts
// only support this view of their open set.
func (c *Client) listPensionOpenOrders(ctx context.Context) ([]broker.OpenOrder, error) {
	now := time.Now()
	params := url.Values{}
	params.Set("CANO", c.creds.Account)
	params.Set("ACNT_PRDT_CD", c.creds.ProductCode)
	params.Set("INQR_STRT_DT", now.AddDate(0, 0, -30).Format("20060102"))
	params.Set("INQR_END_DT", now.Format("20060102"))
	params.Set("SLL_BUY_DVSN_CD", "00")
	params.Set("INQR_DVSN", "00")
	params.Set("PDNO", "")
	params.Set("ORD_GNO_BRNO", "")
	params.Set("PCOD", "")
	params.Set("INQR_DVSN_1", "")
	params.Set("INQR_DVSN_3", "00")
	params.Set("CTX_AREA_FK100", "")
	params.Set("CTX_AREA_NK100", "")
	params.Set("USER_DVSN_CD", "01")
	params.Set("CCLD_NCCS_DVSN", "02") // 02 = unexecuted only

	var out pensionOrdersResponse
	err := c.get(ctx, "/uapi/domestic-stock/v1/trading/pension/inquire-daily-ccld",
		c.trID("TTTC2201R", "VTTC2201R"), params, &out)
	if err != nil {
		return nil, err
	}
	if !out.ok() {
		return nil, fmt.Errorf("pension open orders: %s (%s)", out.Message, out.MessageCode)
	}

	orders := make([]broker.OpenOrder, 0, len(out.Output))
	for _, o := range out.Output {
		remaining := parseInt(o.Remaining)
		if remaining == 0 {
			remaining = parseInt(o.Quantity) - parseInt(o.Executed)
		}
		if remaining <= 0 {
			continue
		}
		side := broker.Buy
		if o.SideCode == "01" {
			side = broker.Sell
		}
		orders = append(orders, broker.OpenOrder{
			ID:        o.OrderNo,
			OrgNo:     o.OrgNo,
			Code:      o.Code,
			Side:      side,
			Remaining: remaining,
			PlacedAt:  parseOrderTime(o.OrderTime),
		})
	}
	return orders, nil
}

// CancelOrder cancels the full remaining quantity of one open order
// (TTTC0803U via order-rvsecncl).
func (c *Client) CancelOrder(ctx context.Context, order broker.OpenOrder) error {
	body := map[string]string{
		"CANO":               c.creds.Account,
		"ACNT_PRDT_CD":       c.creds.ProductCode,
		"KRX_FWDG_ORD_ORGNO": order.OrgNo,
		"ORGN_ODNO":          order.ID,
		"ORD_DVSN":           "00",
		"RVSE_CNCL_DVSN_CD":  "02", // 02 = cancel
		"ORD_QTY":            "0",
		"ORD_UNPR":           "0",
		"QTY_ALL_ORD_YN":     "Y",
	}

	var out orderResponse
	err := c.post(ctx, "/uapi/domestic-stock/v1/trading/order-rvsecncl",
		c.trID("TTTC0803U", "VTTC0803U"), body, &out)
	if err != nil {
		return err
	}
	if !out.ok() {
		return fmt.Errorf("cancel %s: %s (%s)", order.ID, out.Message, out.MessageCode)
	}
	return nil
}

// SubmitOrder places one cash limit order (TTTC0802U buy / TTTC0801U sell).
// A broker-side rejection is reported in the result, not as an error.
func (c *Client) SubmitOrder(ctx context.Context, ticket broker.OrderTicket) (broker.SubmitResult, error) {
	trID := c.trID("TTTC0802U", "VTTC0802U")
	if ticket.Side == broker.Sell {
		trID = c.trID("TTTC0801U", "VTTC0801U")
	}

	body := map[string]string{
		"CANO":         c.creds.Account,
		"ACNT_PRDT_CD": c.creds.ProductCode,
		"PDNO":         ticket.Code,
		"ORD_DVSN":     "00", // limit order
		"ORD_QTY":      strconv.FormatInt(ticket.Quantity, 10),
		"ORD_UNPR":     strconv.FormatFloat(ticket.Price, 'f', 0, 64),
	}

	var out orderResponse
	if err := c.post(ctx, "/uapi/domestic-stock/v1/trading/order-cash", trID, body, &out); err != nil {
		return broker.SubmitResult{}, err
	}
	if !out.ok() {
		return broker.SubmitResult{Accepted: false, Reason: out.Message}, nil
	}
	return broker.SubmitResult{OrderID: out.Output.OrderNo, Accepted: true}, nil
}

// parseOrderTime turns the HHMMSS order timestamp into a time on today's
// date. The endpoint only reports intraday orders, so the date is implied.
func parseOrderTime(hhmmss string) time.Time {
	t, err := time.ParseInLocation("150405", hhmmss, time.Local)
	if err != nil {
		return time.Time{}
	}
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(),
		t.Hour(), t.Minute(), t.Second(), 0, time.Local)
}
