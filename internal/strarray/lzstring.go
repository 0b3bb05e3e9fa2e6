package strarray

import "strings"

// StandardBase64Alphabet is the alphabet LZString.decompressFromBase64
// itself uses when a bundle doesn't ship a custom one, matching the
// teacher's utils.LZString keyStrBase64.
const StandardBase64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/="

// DecompressLZStringBase64 decodes a base64-alphabet LZ-String payload
// using a custom key alphabet, the TransformLZString case of a P3
// Decoder: obfuscators sometimes ship one large compressed string blob
// alongside a per-bundle alphabet instead of a plain string array, and
// decode elements out of it lazily. Adapted from the teacher's
// LZString.DecompressFromBase64/decompress (only the base64 decode path
// is kept — the compressor and the URI/Cloudflare charset variants had
// no caller anywhere a decoder-inline pass would need them, so they were
// dropped rather than carried as dead code).
func DecompressLZStringBase64(alphabet, input string) string {
	if input == "" || alphabet == "" {
		return ""
	}
	input = strings.TrimRight(input, "=")
	return lzDecompress(len(input), 32, func(index int) int {
		if index >= len(input) {
			return -1
		}
		return strings.IndexByte(alphabet, input[index])
	})
}

func lzDecompress(length, resetValue int, getNextValue func(int) int) string {
	dictionary := make([]string, 0, 4)
	enlargeIn := 4
	dictSize := 4
	numBits := 3
	var result strings.Builder

	dataVal := getNextValue(0)
	dataPosition := resetValue
	dataIndex := 1

	for i := 0; i < 3; i++ {
		dictionary = append(dictionary, string(rune(i)))
	}

	readBits := func(maxpower int) int {
		bits := 0
		power := 1
		for power != maxpower {
			resb := dataVal & dataPosition
			dataPosition >>= 1
			if dataPosition == 0 {
				dataPosition = resetValue
				dataVal = getNextValue(dataIndex)
				dataIndex++
			}
			if resb > 0 {
				bits |= power
			}
			power <<= 1
		}
		return bits
	}

	var c string
	switch readBits(4) {
	case 0:
		c = string(rune(readBits(256)))
	case 1:
		c = string(rune(readBits(65536)))
	case 2:
		return ""
	}

	dictionary = append(dictionary, c)
	w := c
	result.WriteString(c)

	for {
		if dataIndex > length {
			return ""
		}

		cInt := readBits(1 << numBits)
		switch cInt {
		case 0:
			dictionary = append(dictionary, string(rune(readBits(256))))
			dictSize++
			cInt = dictSize - 1
			enlargeIn--
		case 1:
			dictionary = append(dictionary, string(rune(readBits(65536))))
			dictSize++
			cInt = dictSize - 1
			enlargeIn--
		case 2:
			return result.String()
		}

		if enlargeIn == 0 {
			enlargeIn = 1 << numBits
			numBits++
		}

		var entry string
		switch {
		case cInt < len(dictionary):
			entry = dictionary[cInt]
		case cInt == dictSize:
			entry = w + string(w[0])
		default:
			return ""
		}

		result.WriteString(entry)
		dictionary = append(dictionary, w+string(entry[0]))
		dictSize++

		enlargeIn--
		if enlargeIn == 0 {
			enlargeIn = 1 << numBits
			numBits++
		}

		w = entry
	}
}
