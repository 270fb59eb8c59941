package kadena

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// isAccountKey accepts a public key of 64 hex digits.
func isAccountKey(s []byte) bool {
	if len(s) != RecipientSize {
		return false
	}
	for _, c := range s {
		if !isHexDigit(c) {
			return false
		}
	}
	return true
}

// isPositiveInteger accepts a non-empty run of digits.
func isPositiveInteger(s []byte) bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		if !isDigit(c) {
			return false
		}
	}
	return true
}

// isDecimal accepts digits with at most one decimal point.
func isDecimal(s []byte) bool {
	if len(s) == 0 {
		return false
	}
	point := false
	for _, c := range s {
		switch {
		case isDigit(c):
		case c == '.' && !point:
			point = true
		default:
			return false
		}
	}
	return true
}

// isGasPrice accepts an integer, a decimal, or a decimal with a negative
// exponent such as 1.0e-6.
func isGasPrice(s []byte) bool {
	if len(s) == 0 {
		return false
	}
	point, exp, minus := false, false, false
	for _, c := range s {
		if minus {
			if c != '-' {
				return false
			}
			minus = false
			continue
		}
		switch {
		case isDigit(c):
		case c == '.' && !point:
			point = true
		case c == 'e' && point && !exp:
			exp, minus = true, true
		default:
			return false
		}
	}
	return !minus
}

// isText accepts bytes that can be spliced into a JSON string as they are.
func isText(s []byte) bool {
	for _, c := range s {
		if c < 0x20 || c == '"' || c == '\\' || c == 0x7f {
			return false
		}
	}
	return true
}

func isNonEmptyText(s []byte) bool {
	return len(s) > 0 && isText(s)
}
