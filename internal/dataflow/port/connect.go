package port

import "errors"

// ErrIncompatibleMetadata is returned by Connect when both ends already
// carry metadata whose stream types differ, per spec §4.3 item 3.
var ErrIncompatibleMetadata = errors.New("port: incompatible metadata stream types")

// Connect wires out to in: it performs connect-time metadata negotiation,
// then subscribes in.Push to out's signal. The returned disconnect
// function reverses both effects and must be called at most once.
//
// Negotiation, per spec §4.3:
//  1. output has meta, input doesn't -> forward: input adopts output's.
//  2. input has meta, output doesn't -> back-propagate: output adopts input's.
//  3. both present, types differ -> ErrIncompatibleMetadata.
//  4. both present, types match -> keep both as-is.
func Connect(out *Output, in *Input) (disconnect func(), err error) {
	outMeta, outHas := out.Metadata()
	inMeta, inHas := in.Metadata()

	switch {
	case outHas && !inHas:
		in.SetMetadata(outMeta)
	case inHas && !outHas:
		out.SetMetadata(inMeta)
	case outHas && inHas:
		if outMeta.Type != inMeta.Type {
			return nil, ErrIncompatibleMetadata
		}
	}

	idx := out.GetSignal().Connect(in.Push)
	in.Connect()

	return func() {
		out.GetSignal().Disconnect(idx)
		in.Disconnect()
	}, nil
}
