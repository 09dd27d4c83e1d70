package models

// Column identifies a numeric series in a Frame. Every producer and consumer
// addresses fields through these constants, so a feature written under one
// name can never be read back under another.
type Column string

const (
	ColOpen   Column = "open"
	ColHigh   Column = "high"
	ColLow    Column = "low"
	ColClose  Column = "close"
	ColVolume Column = "volume"

	ColRet1  Column = "ret_1"
	ColRet5  Column = "ret_5"
	ColRet10 Column = "ret_10"
	ColRet21 Column = "ret_21"

	ColSMA5   Column = "sma_5"
	ColSMA20  Column = "sma_20"
	ColSMA50  Column = "sma_50"
	ColSMA200 Column = "sma_200"

	ColEMA12 Column = "ema_12"
	ColEMA26 Column = "ema_26"
	ColEMA50 Column = "ema_50"

	ColMACDLine   Column = "macd_line"
	ColMACDSignal Column = "macd_signal"
	ColMACDHist   Column = "macd_hist"

	ColRSI14 Column = "rsi_14"

	ColTR    Column = "tr"
	ColATR14 Column = "atr_14"

	ColADX14     Column = "adx_14"
	ColDIPlus14  Column = "di_plus_14"
	ColDIMinus14 Column = "di_minus_14"

	ColBBMid20   Column = "bb_mid_20"
	ColBBUp20    Column = "bb_up_20_2"
	ColBBLo20    Column = "bb_lo_20_2"
	ColBBWidth20 Column = "bb_width_20"
	ColStdev20   Column = "stdev_20"

	ColStdev10       Column = "stdev_10"
	ColBBWidthPct252 Column = "bb_width_pct_252"

	ColVolMA20  Column = "vol_ma20"
	ColVolRatio Column = "vol_ratio"

	ColBodyPct      Column = "body_pct"
	ColUpperWickPct Column = "upper_wick_pct"
	ColLowerWickPct Column = "lower_wick_pct"

	ColDayOfWeek Column = "day_of_week"
	ColMonth     Column = "month"
)

// Flag identifies a boolean series in a Frame.
type Flag string

const (
	FlagVolSpike Flag = "vol_spike_flag"

	FlagBullish Flag = "bullish"
	FlagBearish Flag = "bearish"

	FlagBullishEngulfing Flag = "bullish_engulfing"
	FlagBearishEngulfing Flag = "bearish_engulfing"
	FlagHammer           Flag = "hammer"
	FlagShootingStar     Flag = "shooting_star"
	FlagDoji             Flag = "doji"
	FlagInsideBar        Flag = "inside_bar"
	FlagOutsideBar       Flag = "outside_bar"
	FlagMorningStar      Flag = "morning_star"
	FlagEveningStar      Flag = "evening_star"
)

// PatternFlags lists the candle patterns in the priority order the analog
// model uses to pick the primary pattern of the last row.
var PatternFlags = []Flag{
	FlagBullishEngulfing,
	FlagBearishEngulfing,
	FlagHammer,
	FlagShootingStar,
	FlagMorningStar,
	FlagEveningStar,
	FlagInsideBar,
	FlagOutsideBar,
}

// Label identifies a categorical series in a Frame.
type Label string

const (
	LabelTrend      Label = "trend"
	LabelMomentum   Label = "momentum_state"
	LabelVolatility Label = "volatility_state"
)
