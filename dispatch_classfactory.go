package cifx

import "encoding/binary"

// classFactoryDispatch services the two ClassFactory methods (§4.5.1). The
// ClassFactory object itself is stateless; CreateInstance is the only way a
// client obtains a Driver handle to begin the Open/EnumBoards/OpenChannel
// sequence (§4.9).
func classFactoryDispatch(c methodCtx, method uint32) (MarshErr, int) {
	switch method {
	case MethodCFServerVersion:
		return cfServerVersion(c)
	case MethodCFCreateInstance:
		return cfCreateInstance(c)
	default:
		return MarshInvalidCommand, 0
	}
}

func cfServerVersion(c methodCtx) (MarshErr, int) {
	if len(c.reply) < 4 {
		return MarshBufferTooShort, 0
	}
	binary.LittleEndian.PutUint32(c.reply[0:4], ServerVersion)
	return MarshNoError, 4
}

// cfCreateInstance mints a ClassFactory- or Driver-object handle, whichever
// the request names in its first byte; both are valid targets (§4.5.1,
// original_source's HandleClassfactoryCommand), since this gateway exposes
// exactly one driver instance per process (§4.9).
func cfCreateInstance(c methodCtx) (MarshErr, int) {
	if len(c.req) < 1 {
		return MarshInvalidParameter, 0
	}
	var h Handle
	switch ObjectType(c.req[0]) {
	case ObjectClassFactory:
		h = EncodeHandle(ObjectClassFactory, 0, SystemChannelSubindex)
	case ObjectDriver:
		h = EncodeHandle(ObjectDriver, 0, SystemChannelSubindex)
	default:
		return MarshInvalidParameter, 0
	}
	if len(c.reply) < 4 {
		return MarshBufferTooShort, 0
	}
	binary.LittleEndian.PutUint32(c.reply[0:4], uint32(h))
	return MarshNoError, 4
}
