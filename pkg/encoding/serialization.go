package encoding

// Serializable provides a clean, simple interface for serializing and deserializing values.
type Serializable[T any] interface {
	Serialize() ([]byte, error)
	Deserialize([]byte) error
}

// Decode allocates a T and fills it from data.
func Decode[T any, P interface {
	*T
	Serializable[T]
}](data []byte) (*T, error) {
	var v T
	if err := P(&v).Deserialize(data); err != nil {
		return nil, err
	}
	return &v, nil
}
