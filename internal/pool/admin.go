package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"hubswap/internal/model"
)

// SupportAsset enables or disables deposits and swaps for asset. Enabling
// activates queued positions in id order.
func (e *Engine) SupportAsset(caller, asset common.Address, enabled bool) error {
	return e.machine.Exec(func() error {
		if err := e.access.Authorize(caller); err != nil {
			return err
		}
		pair, err := e.ensurePair(asset)
		if err != nil {
			return err
		}
		if pair.Supported == enabled {
			return ErrAlreadyAtDesiredState.Wrapf("%s supported=%t", asset.Hex(), enabled)
		}
		next := pair.clone()
		next.Supported = enabled
		e.putPair(next)

		activated := 0
		if enabled {
			activated = e.activatePending(asset)
		}
		e.machine.Emit(e.cfg.Address, model.AssetSupportEventData{
			Asset:     asset.Hex(),
			Supported: enabled,
			Activated: activated,
		})
		e.logger.Info("asset support changed",
			zap.String("asset", asset.Hex()),
			zap.Bool("supported", enabled),
			zap.Int("activated", activated),
		)
		return nil
	})
}

// activatePending prices queued deposits into the now-supported pair. A
// deposit that would mint zero units stays pending and can still be
// cancelled.
func (e *Engine) activatePending(asset common.Address) int {
	activated := 0
	for _, pos := range e.positions {
		if pos.Burned || !pos.Pending || pos.Asset != asset {
			continue
		}
		pair := e.pairs[asset]
		units, err := mintUnits(pair, pos.OriginalNative, pos.OriginalForeign)
		if err != nil {
			e.logger.Warn("pending position left queued", zap.Uint64("position", pos.ID), zap.Error(err))
			continue
		}
		next := pair.clone()
		next.QueuedNative = sub(pair.QueuedNative, pos.OriginalNative)
		next.QueuedForeign = sub(pair.QueuedForeign, pos.OriginalForeign)
		next.NativeReserve = add(pair.NativeReserve, pos.OriginalNative)
		next.ForeignReserve = add(pair.ForeignReserve, pos.OriginalForeign)
		next.TotalUnits = add(pair.TotalUnits, units)
		e.putPair(next)

		live := pos.clone()
		live.Units = units
		live.Pending = false
		e.putPosition(live)
		activated++
	}
	return activated
}

// ToggleQueueMode flips whether deposits into unsupported assets are queued.
func (e *Engine) ToggleQueueMode(caller common.Address) error {
	return e.machine.Exec(func() error {
		if err := e.access.Authorize(caller); err != nil {
			return err
		}
		e.setQueue(!e.queue)
		e.machine.Emit(e.cfg.Address, model.QueueToggleEventData{Active: e.queue})
		e.logger.Info("queue mode toggled", zap.Bool("active", e.queue))
		return nil
	})
}

// SetQueueMode is used at genesis, outside any transaction.
func (e *Engine) SetQueueMode(active bool) { e.setQueue(active) }

func (e *Engine) setQueue(active bool) {
	prev := e.queue
	e.queue = active
	e.machine.Record(func() { e.queue = prev })
}
