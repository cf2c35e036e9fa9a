package dag

import (
	"context"
	"errors"

	"github.com/kbukum/rulekit/cas"
	"github.com/kbukum/rulekit/codec"
	"github.com/kbukum/rulekit/digest"
	"github.com/kbukum/rulekit/logger"
	"github.com/kbukum/rulekit/provider"
)

// Fingerprinter is implemented by nodes whose behavior can change without a
// rename. The fingerprint is folded into the node's cache key, so bumping it
// invalidates cached outputs.
type Fingerprinter interface {
	Fingerprint() string
}

// Unwrapper is implemented by node wrappers to expose the wrapped node.
type Unwrapper interface {
	Unwrap() Node
}

type inputDigest struct {
	Name   string        `cbor:"name"`
	Digest digest.Digest `cbor:"digest"`
}

type actionKeyDoc struct {
	Node        string        `cbor:"node"`
	Fingerprint string        `cbor:"fingerprint,omitempty"`
	Inputs      []inputDigest `cbor:"inputs"`
}

// actionKey derives the cache key of running node over inputs. inputs must
// be in dependency-name order.
func actionKey(node Node, inputs []inputDigest) (digest.Digest, error) {
	doc := actionKeyDoc{Node: node.Name(), Fingerprint: fingerprint(node), Inputs: inputs}
	data, err := codec.Marshal(doc)
	if err != nil {
		return digest.Digest{}, err
	}
	return digest.Of(data), nil
}

func fingerprint(node Node) string {
	for node != nil {
		if f, ok := node.(Fingerprinter); ok {
			return f.Fingerprint()
		}
		u, ok := node.(Unwrapper)
		if !ok {
			break
		}
		node = u.Unwrap()
	}
	return ""
}

// lookup returns the cached output for key. Any failure is a miss.
func (e *Engine) lookup(ctx context.Context, name string, key digest.Digest) (*provider.Map, bool) {
	result, err := e.Cache.GetAction(ctx, key)
	if err != nil {
		if !errors.Is(err, cas.ErrNotFound) {
			e.logger().WithContext(ctx).Warn("Cache lookup failed", logger.Fields(
				logger.FieldNode, name, logger.FieldError, err.Error()))
		}
		return nil, false
	}
	out, err := cas.NewMapStore(e.Cache).GetMap(ctx, result)
	if err != nil {
		e.logger().WithContext(ctx).Debug("Cached output unavailable", logger.Fields(
			logger.FieldNode, name, logger.FieldDigest, result.Short(), logger.FieldError, err.Error()))
		return nil, false
	}
	return out, true
}

// store records out as the result of key. Failures only cost a future miss.
func (e *Engine) store(ctx context.Context, name string, key digest.Digest, out *provider.Map) {
	d, err := cas.NewMapStore(e.Cache).PutMap(ctx, out)
	if err == nil {
		err = e.Cache.PutAction(ctx, key, d)
	}
	if err != nil {
		e.logger().WithContext(ctx).Warn("Cache store failed", logger.Fields(
			logger.FieldNode, name, logger.FieldError, err.Error()))
	}
}
