package object

const (
	memPtrSize      int64 = 8
	memStringHead   int64 = 24
	memArrayHead    int64 = 24
	memObjectHead   int64 = 48
	memPropEntry    int64 = 32
	memErrorHead    int64 = 64
	memFunctionHead int64 = 64
	memScopeHead    int64 = 48
)

func CostStringBytes(n int) int64 {
	if n < 0 {
		return memStringHead
	}
	return memStringHead + int64(n)
}

func CostArray(n int) int64 {
	if n < 0 {
		return memArrayHead
	}
	return memArrayHead + int64(n)*memPtrSize
}

func CostArrayElements(n int) int64 {
	if n <= 0 {
		return 0
	}
	return int64(n) * memPtrSize
}

func CostObject(n int) int64 {
	if n < 0 {
		return memObjectHead
	}
	return memObjectHead + int64(n)*memPropEntry
}

func CostProperty() int64 {
	return memPropEntry
}

func CostError() int64 {
	return memErrorHead
}

func CostFunction() int64 {
	return memFunctionHead
}

func CostScope(n int) int64 {
	if n < 0 {
		return memScopeHead
	}
	return memScopeHead + int64(n)*memPropEntry
}

// CostOf estimates the retained size of a heap value as currently shaped.
func CostOf(v Value) int64 {
	switch x := v.(type) {
	case *Object:
		return CostObject(x.Len())
	case *Array:
		return CostArray(len(x.Elements))
	case *Function:
		n := int64(0)
		if x.props != nil {
			n = CostObject(x.props.Len())
		}
		return CostFunction() + n
	case *Error:
		return CostError() + CostStringBytes(len(x.Message)) - memStringHead
	case *String:
		return CostStringBytes(len(x.Value))
	}
	return 0
}
