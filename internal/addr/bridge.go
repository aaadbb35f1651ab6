// Package addr implements the bidirectional, round-trip-eliding
// conversion between word-oriented B addresses and byte-oriented IR
// pointers: a word-address is a byte address divided by the target's
// bytes-per-word; an IR pointer is LLVM's native pointer type.
// Round-trips collapse to a single bitcast by way of an explicit
// back-link side table keyed by IR-value identity, rather than any
// dynamic attribute attached to the IR value itself.
package addr

import "tinygo.org/x/go-llvm"

// Bridge owns the back-link side tables and the builder used to emit the
// arithmetic/cast instructions that implement the two conversions. It is
// scoped to one compilation; internal/ctx embeds one per Context.
type Bridge struct {
	builder      llvm.Builder
	bytesPerWord int64

	// ptrOrigin records, for a pointer value produced by AddressToPointer,
	// the address it was derived from.
	ptrOrigin map[llvm.Value]llvm.Value
	// addrOrigin records, for an address value produced by
	// PointerToAddress, the pointer it was derived from.
	addrOrigin map[llvm.Value]llvm.Value
}

// NewBridge returns a Bridge that emits through b, using wordSize bytes
// per word.
func NewBridge(b llvm.Builder, wordSize int) *Bridge {
	return &Bridge{
		builder:      b,
		bytesPerWord: int64(wordSize),
		ptrOrigin:    make(map[llvm.Value]llvm.Value),
		addrOrigin:   make(map[llvm.Value]llvm.Value),
	}
}

// AddressToPointer converts the word-address addr into an IR pointer to
// pointee. If addr carries a back-link to a pointer (it was itself
// produced by PointerToAddress), a single bitcast to the requested
// pointee type is emitted instead of reconstructing the pointer from
// scratch. The returned pointer back-links to addr, so a later
// PointerToAddress call on it returns addr unchanged.
func (br *Bridge) AddressToPointer(addrVal llvm.Value, pointee llvm.Type) llvm.Value {
	ptrTy := llvm.PointerType(pointee, 0)

	var ptr llvm.Value
	if origin, ok := br.addrOrigin[addrVal]; ok {
		ptr = br.builder.CreateBitCast(origin, ptrTy, "")
	} else {
		wordTy := addrVal.Type()
		byteAddr := br.builder.CreateMul(addrVal, llvm.ConstInt(wordTy, uint64(br.bytesPerWord), false), "")
		ptr = br.builder.CreateIntToPtr(byteAddr, ptrTy, "")
	}
	br.ptrOrigin[ptr] = addrVal
	return ptr
}

// PointerToAddress converts the IR pointer ptr into a word-address. If
// ptr carries a back-link to the address that produced it (via
// AddressToPointer), that address is returned directly. Otherwise a
// ptrtoint followed by an exact unsigned division by bytes-per-word is
// emitted; misalignment under that exact division is undefined behavior
// the frontend does not guard against, matching the bridge's contract.
func (br *Bridge) PointerToAddress(ptr llvm.Value, wordTy llvm.Type) llvm.Value {
	if origin, ok := br.ptrOrigin[ptr]; ok {
		return origin
	}
	asInt := br.builder.CreatePtrToInt(ptr, wordTy, "")
	addrVal := br.builder.CreateExactUDiv(asInt, llvm.ConstInt(wordTy, uint64(br.bytesPerWord), false), "")
	br.addrOrigin[addrVal] = ptr
	return addrVal
}

// Mangle prepends the "b." prefix every externally visible B symbol gets,
// keeping B's namespace disjoint from C-callable identifiers.
func Mangle(name string) string {
	return "b." + name
}

// ConstPointerToAddress folds ptr down to a word-address using constant
// expressions (ptrtoint then exact udiv), for call sites that run before
// any builder exists — the declaration pass creates global storage and
// resolves its address-as-word without emitting a single instruction.
func ConstPointerToAddress(ptr llvm.Value, wordTy llvm.Type, bytesPerWord int) llvm.Value {
	asInt := llvm.ConstPtrToInt(ptr, wordTy)
	return llvm.ConstExactUDiv(asInt, llvm.ConstInt(wordTy, uint64(bytesPerWord), false))
}
