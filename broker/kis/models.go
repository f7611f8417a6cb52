package kis

import "strconv"

// tokenResponse is the /oauth2/tokenP payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// apiHeader is the envelope every KIS trading response carries.
type apiHeader struct {
	ReturnCode  string `json:"rt_cd"`
	MessageCode string `json:"msg_cd"`
	Message     string `json:"msg1"`
}

func (h apiHeader) ok() bool { return h.ReturnCode == "0" }

// balanceResponse is the inquire-balance payload: output1 holds positions,
// output2 the account summary.
type balanceResponse struct {
	apiHeader
	Output1 []balanceHolding `json:"output1"`
	Output2 []balanceSummary `json:"output2"`
}

type balanceHolding struct {
	Code     string `json:"pdno"`
	Name     string `json:"prdt_name"`
	Quantity string `json:"hldg_qty"`
	AvgPrice string `json:"pchs_avg_pric"`
	Price    string `json:"prpr"`
	Value    string `json:"evlu_amt"`
}

type balanceSummary struct {
	TotalAsset string `json:"tot_evlu_amt"`
	Deposit    string `json:"dnca_tot_amt"`
	Purchased  string `json:"pchs_amt_smtl_amt"`
	Valuation  string `json:"evlu_amt_smtl_amt"`
	ProfitLoss string `json:"evlu_pfls_smtl_amt"`
}

// askingPriceResponse is the inquire-asking-price-exp-ccn payload: output1
// carries the book, output2 the expected-execution block.
type askingPriceResponse struct {
	apiHeader
	Output1 askingPriceBook `json:"output1"`
	Output2 expectedPrice   `json:"output2"`
}

type askingPriceBook struct {
	BestAsk string `json:"askp1"`
	BestBid string `json:"bidp1"`
}

type expectedPrice struct {
	LastPrice     string `json:"stck_prpr"`
	ExpectedPrice string `json:"antc_cnpr"`
}

// openOrdersResponse is the inquire-psbl-rvsecncl payload.
type openOrdersResponse struct {
	apiHeader
	Output []openOrderItem `json:"output"`
}

type openOrderItem struct {
	OrderNo   string `json:"odno"`
	OrgNo     string `json:"ord_gno_brno"`
	Code      string `json:"pdno"`
	SideCode  string `json:"sll_buy_dvsn_cd"` // 01 sell, 02 buy
	Remaining string `json:"psbl_qty"`
	OrderTime string `json:"ord_tmd"` // HHMMSS
}

// dailyPriceResponse is the inquire-daily-itemchartprice payload; output2
// holds the candles, newest first.
type dailyPriceResponse struct {
	apiHeader
	Output2 []dailyPriceRow `json:"output2"`
}

type dailyPriceRow struct {
	Date  string `json:"stck_bsop_date"` // YYYYMMDD
	Close string `json:"stck_clpr"`
}

// pensionOrdersResponse is the pension inquire-daily-ccld payload, the
// fallback open-order view for pension-type accounts.
type pensionOrdersResponse struct {
	apiHeader
	Output []pensionOrderItem `json:"output1"`
}

type pensionOrderItem struct {
	OrderNo   string `json:"odno"`
	OrgNo     string `json:"ord_gno_brno"`
	Code      string `json:"pdno"`
	SideCode  string `json:"sll_buy_dvsn_cd"` // 01 sell, 02 buy
	Quantity  string `json:"ord_qty"`
	Executed  string `json:"tot_ccld_qty"`
	Remaining string `json:"nccs_qty"`
	OrderTime string `json:"ord_tmd"`
}

// orderResponse is the order-cash / order-rvsecncl payload.
type orderResponse struct {
	apiHeader
	Output struct {
		OrderNo   string `json:"ODNO"`
		OrderTime string `json:"ORD_TMD"`
	} `json:"output"`
}

// parseFloat converts KIS numeric strings, treating empty as zero. The API
// renders every number as a string.
func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(s string) int64 {
	return int64(parseFloat(s))
}
