package model

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"fincoach/internal/signal"
)

// metaEnvelope tags serialized signal metadata with its concrete kind so it
// can be decoded back into the right type.
type metaEnvelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// EncodeSignalMeta serializes typed signal metadata. Nil metadata encodes as
// an empty document.
func EncodeSignalMeta(meta signal.Metadata) (datatypes.JSON, error) {
	if meta == nil {
		return datatypes.JSON([]byte("{}")), nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal signal meta: %w", err)
	}
	env, err := json.Marshal(metaEnvelope{Kind: meta.Kind(), Data: data})
	if err != nil {
		return nil, fmt.Errorf("marshal signal meta envelope: %w", err)
	}
	return datatypes.JSON(env), nil
}

// DecodeSignalMeta restores typed metadata from a stored envelope. Unknown
// kinds decode to nil rather than failing, since signal types are additive.
func DecodeSignalMeta(raw datatypes.JSON) (signal.Metadata, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var env metaEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal signal meta envelope: %w", err)
	}
	if env.Kind == "" {
		return nil, nil
	}
	switch env.Kind {
	case signal.MetaKindCreditCards:
		var m signal.CreditCardMeta
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, err
		}
		return m, nil
	case signal.MetaKindSubscriptions:
		var m signal.SubscriptionMeta
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, err
		}
		return m, nil
	case signal.MetaKindIncome:
		var m signal.IncomeMeta
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, err
		}
		return m, nil
	case signal.MetaKindSavings:
		var m signal.SavingsMeta
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, nil
	}
}

// EncodeDataCited serializes a trace step's data-cited payload.
func EncodeDataCited(cited map[string]any) (datatypes.JSON, error) {
	if len(cited) == 0 {
		return datatypes.JSON([]byte("{}")), nil
	}
	data, err := json.Marshal(cited)
	if err != nil {
		return nil, fmt.Errorf("marshal data cited: %w", err)
	}
	return datatypes.JSON(data), nil
}

// DecodeDataCited restores a trace step's data-cited payload.
func DecodeDataCited(raw datatypes.JSON) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal data cited: %w", err)
	}
	return out, nil
}
