package transport

// Major message codes. The numbering is fixed by the wire format and
// must not be reassigned.
const (
	MajorTest       byte = 0
	MajorNet        byte = 1
	MajorServer     byte = 2
	MajorPubPlayer  byte = 3
	MajorDLBinary   byte = 4
	MajorAssets     byte = 5
	MajorProfile    byte = 8
	MajorWorld      byte = 9
	MajorGame       byte = 10
	MajorSocial     byte = 11
	MajorCPU        byte = 12
)

// Minor codes under MajorNet: the five handshake messages.
const (
	MinorAuthInit        byte = 1
	MinorAuthSendSalt    byte = 2
	MinorAuthKeyExchange byte = 3
	MinorAuthKeyReply    byte = 4
)
