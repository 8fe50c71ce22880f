package core

import (
	"fmt"

	"github.com/tsawler/textstrip/internal/filters"
)

// Decode decodes the stream data according to the Filter(s) specified in the
// stream dictionary. Image codecs (DCT, JPX, JBIG2) are passed through.
// Indirect /Filter or /DecodeParms entries need DecodeWith.
func (s *Stream) Decode() ([]byte, error) {
	return s.DecodeWith(nil)
}

// DecodeWith is Decode with /Filter, /DecodeParms and their elements
// resolved through r first. A nil r leaves references unresolved.
func (s *Stream) DecodeWith(r Resolver) ([]byte, error) {
	resolve := func(obj Object) Object {
		if r == nil || obj == nil {
			return obj
		}
		return r.Resolve(obj)
	}

	filterObj := resolve(s.Dict.Get("Filter"))
	if filterObj == nil {
		return s.Data, nil
	}
	if _, ok := filterObj.(Null); ok {
		return s.Data, nil
	}
	paramsObj := resolve(s.Dict.Get("DecodeParms"))

	if filterName, ok := filterObj.(Name); ok {
		return decodeWithFilter(s.Data, string(filterName), resolveParams(resolve, paramsObj))
	}

	filterArray, ok := filterObj.(Array)
	if !ok {
		return nil, fmt.Errorf("invalid Filter type: %T", filterObj)
	}
	data := s.Data
	for i, filter := range filterArray {
		filterName, ok := resolve(filter).(Name)
		if !ok {
			return nil, fmt.Errorf("filter %d is not a name: %T", i, filter)
		}

		// one DecodeParms entry per filter, or a single dictionary for all
		params := paramsObj
		if paramsArray, ok := paramsObj.(Array); ok {
			params = nil
			if i < len(paramsArray) {
				params = resolve(paramsArray[i])
			}
		}

		var err error
		data, err = decodeWithFilter(data, string(filterName), resolveParams(resolve, params))
		if err != nil {
			return nil, fmt.Errorf("filter %d (%s) failed: %w", i, filterName, err)
		}
	}
	return data, nil
}

// resolveParams returns the parameter dictionary with indirect values
// resolved
func resolveParams(resolve func(Object) Object, obj Object) Dict {
	dict := paramsObjToDict(obj)
	if dict == nil {
		return nil
	}
	out := make(Dict, len(dict))
	for k, v := range dict {
		out[k] = resolve(v)
	}
	return out
}

// paramsObjToDict converts a DecodeParms object to a Dict.
// Returns nil if the object is nil, Null, or not a Dict.
func paramsObjToDict(obj Object) Dict {
	if obj == nil {
		return nil
	}

	if dict, ok := obj.(Dict); ok {
		return dict
	}

	// Null is treated as no params
	if _, ok := obj.(Null); ok {
		return nil
	}

	return nil
}

// dictToParams converts a core.Dict to filters.Params, translating PDF object
// types to Go primitive types (Int->int, Real->float64, Bool->bool, etc.).
func dictToParams(dict Dict) filters.Params {
	if dict == nil {
		return nil
	}

	params := make(filters.Params)
	for k, v := range dict {
		// Convert PDF objects to Go primitives
		switch obj := v.(type) {
		case Int:
			params[k] = int(obj)
		case Real:
			params[k] = float64(obj)
		case Bool:
			params[k] = bool(obj)
		case String:
			params[k] = string(obj)
		case Name:
			params[k] = string(obj)
		default:
			// Keep other types as-is
			params[k] = v
		}
	}
	return params
}

// IsImageCodec reports whether the stream's last filter is an image codec
// whose output Decode does not expand
func (s *Stream) IsImageCodec() bool {
	var last Object
	switch f := s.Dict.Get("Filter").(type) {
	case Name:
		last = f
	case Array:
		if len(f) > 0 {
			last = f[len(f)-1]
		}
	}
	switch last {
	case Name("DCTDecode"), Name("DCT"), Name("JPXDecode"), Name("JBIG2Decode"):
		return true
	}
	return false
}

// SetDecodedData replaces the stream content with data that carries no
// filter. When compress is true the data is Flate-encoded.
func (s *Stream) SetDecodedData(data []byte, compress bool) error {
	delete(s.Dict, "DecodeParms")
	delete(s.Dict, "Filter")
	if compress {
		enc, err := filters.FlateEncode(data)
		if err != nil {
			return err
		}
		s.Dict["Filter"] = Name("FlateDecode")
		data = enc
	}
	s.Data = data
	s.Dict["Length"] = Int(len(data))
	return nil
}

// NewStream builds a stream from decoded content
func NewStream(dict Dict, data []byte, compress bool) (*Stream, error) {
	if dict == nil {
		dict = Dict{}
	}
	s := &Stream{Dict: dict}
	if err := s.SetDecodedData(data, compress); err != nil {
		return nil, err
	}
	return s, nil
}
