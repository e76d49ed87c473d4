package inventory

import "github.com/shopspring/decimal"

// WeightedUnitPrice implementa el precio unitario promedio ponderado (servicio de dominio).
// NuevoPrecio = ((SaldoActual * PrecioActual) + (CantEntrada * PrecioEntrada)) / (SaldoActual + CantEntrada)
func WeightedUnitPrice(balance, currentPrice, entryQty, entryPrice decimal.Decimal) decimal.Decimal {
	sum := balance.Add(entryQty)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	if balance.LessThanOrEqual(decimal.Zero) {
		return entryPrice.Round(PriceScale)
	}
	num := balance.Mul(currentPrice).Add(entryQty.Mul(entryPrice))
	return num.DivRound(sum, PriceScale)
}
