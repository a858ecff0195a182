package pool

import "math/big"

// ImpermanentLoss is the native-denominated shortfall, in internal units,
// of the removed liquidity against simply holding its share of the original
// deposit. Both legs are valued at the pool price at removal
// (NativeInternal/ForeignInternal). The loss vests linearly with position
// age over vesting seconds; a zero vesting period pays it in full.
func (r *Removal) ImpermanentLoss(now, vesting uint64) *big.Int {
	if r.Pending || !positive(r.NativeInternal) {
		return new(big.Int)
	}
	held := new(big.Int).Set(r.OriginalNative)
	if positive(r.ForeignInternal) {
		held.Add(held, mulDiv(r.OriginalForeign, r.NativeInternal, r.ForeignInternal))
	}
	current := new(big.Int).Set(r.NativeInternal)
	if positive(r.ForeignInternal) {
		current.Add(current, r.NativeInternal)
	}
	if held.Cmp(current) <= 0 {
		return new(big.Int)
	}
	loss := held.Sub(held, current)
	if vesting == 0 {
		return loss
	}
	age := uint64(0)
	if now > r.CreatedAt {
		age = now - r.CreatedAt
	}
	if age >= vesting {
		return loss
	}
	return mulDiv(loss, new(big.Int).SetUint64(age), new(big.Int).SetUint64(vesting))
}
