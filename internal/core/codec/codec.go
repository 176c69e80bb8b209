// Package codec converts the headers of crafted and captured frames between
// their typed form and wire bytes.
//
// Every codec decodes a prefix of its input and hands back the unconsumed
// remainder, so codecs compose with Stack. Short input always yields an
// error wrapping core.ErrTruncatedHeader.
package codec

// Codec decodes and encodes one header type. Encode emits exactly the bytes
// Decode consumes.
type Codec[T any] interface {
	Decode(b []byte) (T, []byte, error)
	Encode(v T) []byte
}

// Pair holds two consecutively stacked headers.
type Pair[A, B any] struct {
	First  A
	Second B
}

type stack[A, B any] struct {
	first  Codec[A]
	second Codec[B]
}

// Stack composes two codecs: decoding runs first, then second on its
// remainder; encoding concatenates both outputs.
func Stack[A, B any](first Codec[A], second Codec[B]) Codec[Pair[A, B]] {
	return stack[A, B]{first: first, second: second}
}

func (s stack[A, B]) Decode(b []byte) (Pair[A, B], []byte, error) {
	var p Pair[A, B]
	a, rest, err := s.first.Decode(b)
	if err != nil {
		return p, nil, err
	}
	c, rest, err := s.second.Decode(rest)
	if err != nil {
		return p, nil, err
	}
	return Pair[A, B]{First: a, Second: c}, rest, nil
}

func (s stack[A, B]) Encode(p Pair[A, B]) []byte {
	out := s.first.Encode(p.First)
	return append(out, s.second.Encode(p.Second)...)
}

// Codecs for the supported headers.
var (
	Ether Codec[EtherHeader] = etherCodec{}
	IPv4  Codec[IPv4Header]  = ipv4Codec{}
	ICMP  Codec[ICMPHeader]  = icmpCodec{}
	ARP   Codec[ARPPacket]   = arpCodec{}

	// EtherIPv4 decodes an Ethernet frame carrying IPv4.
	EtherIPv4 = Stack(Ether, IPv4)
)
