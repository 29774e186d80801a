// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package feedback

import (
	"fmt"

	"github.com/tradelite/tradelite/internal/types"
)

type template struct {
	feedback    func(asset string, timeframe int) string
	keyPoints   []string
	suggestions []string
}

var strategyTemplates = map[string]template{
	"sma_crossover": {
		feedback: func(asset string, timeframe int) string {
			return fmt.Sprintf("This simulation demonstrates a Simple Moving Average (SMA) Crossover strategy applied to %s over %d days. The strategy involves tracking two moving averages - typically a short-term and long-term SMA - and generating buy signals when the short-term SMA crosses above the long-term SMA, and sell signals when it crosses below. This strategy aims to identify trend changes and can be effective in trending markets, but may generate false signals in sideways or highly volatile markets.", asset, timeframe)
		},
		keyPoints: []string{
			"SMA Crossover strategies work best in trending markets",
			"The choice of SMA periods significantly impacts performance",
			"This strategy typically lags behind price movements due to the nature of moving averages",
			"False signals are common during sideways market conditions",
		},
		suggestions: []string{
			"Consider adding a confirmation indicator like volume or RSI",
			"Test different SMA period combinations to optimize for your asset",
			"Implement a stop-loss strategy to manage downside risk",
		},
	},
	"ema_crossover": {
		feedback: func(asset string, timeframe int) string {
			return fmt.Sprintf("This simulation demonstrates an Exponential Moving Average (EMA) Crossover strategy applied to %s over %d days. EMA crossover strategies are similar to SMA crossovers but give more weight to recent price data, making them more responsive to new information. The strategy generates buy signals when a shorter-term EMA crosses above a longer-term EMA, and sell signals when it crosses below. EMA crossovers can respond faster to trend changes than SMA crossovers, but this responsiveness can also lead to more false signals in volatile markets.", asset, timeframe)
		},
		keyPoints: []string{
			"EMA Crossover strategies respond faster to price changes than SMA strategies",
			"The strategy is more sensitive to recent price movements",
			"While more responsive, EMA crossovers can generate more false signals in volatile markets",
			"The choice of EMA periods significantly impacts performance",
		},
		suggestions: []string{
			"Consider using a price filter to reduce false signals",
			"Test different EMA period combinations to find optimal settings",
			"Combine with volatility indicators to avoid trading during choppy markets",
		},
	},
	"macd": {
		feedback: func(asset string, timeframe int) string {
			return fmt.Sprintf("This simulation demonstrates a Moving Average Convergence Divergence (MACD) strategy applied to %s over %d days. MACD is a trend-following momentum indicator that shows the relationship between two moving averages of an asset's price. The MACD line is calculated by subtracting the 26-period EMA from the 12-period EMA. A 9-period EMA of the MACD, called the 'signal line', is then plotted on top of the MACD line. Buy signals typically occur when the MACD line crosses above the signal line, and sell signals when it crosses below. MACD can also show divergence with price, potentially indicating trend reversals.", asset, timeframe)
		},
		keyPoints: []string{
			"MACD combines trend following and momentum in one indicator",
			"Signal line crossovers are the primary trading signals",
			"Divergence between MACD and price can indicate potential reversals",
			"MACD histogram shows the difference between MACD and signal line",
		},
		suggestions: []string{
			"Use MACD in conjunction with price action analysis",
			"Consider the overall trend direction before taking MACD signals",
			"Look for MACD divergence to identify potential trend exhaustion",
		},
	},
	"rsi": {
		feedback: func(asset string, timeframe int) string {
			return fmt.Sprintf("This simulation demonstrates a Relative Strength Index (RSI) strategy applied to %s over %d days. RSI is a momentum oscillator that measures the speed and change of price movements on a scale from 0 to 100. Traditional interpretation considers RSI values over 70 as overbought and under 30 as oversold, potentially signaling reversal points. RSI strategies can be effective for identifying potential reversal points in the market, but can lead to premature entries during strong trends. The indicator works best in ranging markets and should be used with caution during strong trending periods.", asset, timeframe)
		},
		keyPoints: []string{
			"RSI measures the magnitude of recent price changes to evaluate overbought or oversold conditions",
			"Traditional overbought level is 70 and oversold level is 30",
			"RSI can remain in overbought/oversold territory during strong trends",
			"RSI divergence with price can signal potential trend reversals",
		},
		suggestions: []string{
			"Adjust the RSI overbought/oversold levels based on the asset's volatility",
			"Combine RSI with trend indicators to avoid counter-trend trades",
			"Look for RSI divergence to confirm potential reversal signals",
		},
	},
	"bollinger": {
		feedback: func(asset string, timeframe int) string {
			return fmt.Sprintf("This simulation demonstrates a Bollinger Bands strategy applied to %s over %d days. Bollinger Bands consist of a middle band (typically a 20-period SMA) with an upper and lower band set at standard deviations away from the middle band. The bands expand and contract based on volatility. Common strategies include buying when the price touches the lower band and selling when it touches the upper band (mean reversion), or entering trades when the price breaks out of the bands after a period of low volatility (volatility expansion). Bollinger Bands are versatile and can be used in both trending and ranging markets with appropriate adjustments.", asset, timeframe)
		},
		keyPoints: []string{
			"Bollinger Bands adapt to market volatility by widening and narrowing",
			"Price touching the bands alone is not necessarily a signal to trade",
			"Band width indicates market volatility - narrow bands often precede significant moves",
			"The middle band (SMA) can act as support/resistance in trending markets",
		},
		suggestions: []string{
			"Combine with volume indicators to confirm breakouts",
			"Use additional indicators to determine if the market is trending or ranging",
			"Consider using Bollinger Band %B or Bandwidth for additional insights",
		},
	},
}

// templateFeedback builds canned feedback for a strategy plus a performance
// sentence derived from the ROI band.
func templateFeedback(req types.FeedbackRequest) types.FeedbackResponse {
	tpl, ok := strategyTemplates[req.Strategy]
	if !ok {
		tpl = template{
			feedback: func(asset string, timeframe int) string {
				return fmt.Sprintf("This simulation demonstrates a %s strategy applied to %s over %d days. The performance shows an ROI of %v%%. Trading strategies can perform differently depending on market conditions, timeframes, and specific assets. It's important to understand the underlying principles of the strategy and how various market factors can influence its performance.",
					StrategyDisplayName(req.Strategy), asset, timeframe, req.Performance.ROI)
			},
			keyPoints: []string{
				"Different strategies perform better in different market conditions",
				"Risk management is essential for long-term success",
				"Past performance is not indicative of future results",
				"Understanding the underlying principles of a strategy is more valuable than blindly following signals",
			},
			suggestions: []string{
				"Backtest the strategy across different market conditions",
				"Consider combining multiple indicators for confirmation",
				"Implement proper position sizing and risk management rules",
			},
		}
	}

	roi := req.Performance.ROI
	var performanceSentence string
	switch {
	case roi > 15:
		performanceSentence = fmt.Sprintf("The strategy performed well with an ROI of %v%%, but remember that past performance doesn't guarantee future results. Market conditions can change rapidly.", roi)
	case roi > 0:
		performanceSentence = fmt.Sprintf("The strategy showed a positive ROI of %v%%, which is a moderate result. Consider how different market conditions might affect performance.", roi)
	default:
		performanceSentence = fmt.Sprintf("The strategy resulted in a negative ROI of %v%%. This provides a valuable learning opportunity to understand what factors contributed to the underperformance.", roi)
	}

	return types.FeedbackResponse{
		Feedback:               tpl.feedback(req.Asset, req.Timeframe) + " " + performanceSentence,
		KeyPoints:              tpl.keyPoints,
		ImprovementSuggestions: tpl.suggestions,
	}
}
