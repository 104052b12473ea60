package ipmi

import "github.com/google/gopacket"

// Layer type IDs for the four frame types this library decodes/encodes.
// Numbered in an arbitrary private range, matching the convention gopacket
// itself uses for application-registered layers.
var (
	LayerTypeRMCP = gopacket.RegisterLayerType(
		2000,
		gopacket.LayerTypeMetadata{Name: "RMCP", Decoder: gopacket.DecodeFunc(decodeRMCP)},
	)
	LayerTypeASF = gopacket.RegisterLayerType(
		2001,
		gopacket.LayerTypeMetadata{Name: "ASF", Decoder: gopacket.DecodeFunc(decodeASF)},
	)
	LayerTypeSessionHeader = gopacket.RegisterLayerType(
		2002,
		gopacket.LayerTypeMetadata{Name: "IPMISessionHeader", Decoder: gopacket.DecodeFunc(decodeSessionHeader)},
	)
	LayerTypeMessage = gopacket.RegisterLayerType(
		2003,
		gopacket.LayerTypeMetadata{Name: "IPMIMessage", Decoder: gopacket.DecodeFunc(decodeMessage)},
	)
)

func decodeRMCP(data []byte, p gopacket.PacketBuilder) error {
	r := &RMCP{}
	if err := r.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(r)
	return p.NextDecoder(r.NextLayerType())
}

func decodeASF(data []byte, p gopacket.PacketBuilder) error {
	a := &ASF{}
	if err := a.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(a)
	return nil
}

func decodeSessionHeader(data []byte, p gopacket.PacketBuilder) error {
	s := &SessionHeader{}
	if err := s.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(s)
	return p.NextDecoder(LayerTypeMessage)
}

func decodeMessage(data []byte, p gopacket.PacketBuilder) error {
	m := &Message{}
	if err := m.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(m)
	return p.NextDecoder(m.NextLayerType())
}
