package writer

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// EncodePFM writes a grayscale PFM image. The scale line is -1.0: data is
// little-endian float32, rows bottom to top per the format.
func EncodePFM(w io.Writer, width, height int, data []float32) error {
	if len(data) != width*height {
		return errors.Errorf("pfm: %d samples for %dx%d image", len(data), width, height)
	}
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "Pf\n%d %d\n-1.0\n", width, height); err != nil {
		return err
	}
	row := make([]byte, width*4)
	for y := height - 1; y >= 0; y-- {
		for x := 0; x < width; x++ {
			binary.LittleEndian.PutUint32(row[x*4:], math.Float32bits(data[y*width+x]))
		}
		if _, err := bw.Write(row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DecodePFM reads a grayscale PFM image written by EncodePFM.
func DecodePFM(r io.Reader) (width, height int, data []float32, err error) {
	br := bufio.NewReader(r)
	readLine := func() (string, error) {
		s, err := br.ReadString('\n')
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}

	magic, err := readLine()
	if err != nil || magic != "Pf" {
		return 0, 0, nil, errors.Errorf("pfm: bad magic %q", magic)
	}
	dims, err := readLine()
	if err != nil {
		return 0, 0, nil, errors.Wrap(err, "pfm: parse header")
	}
	if _, err := fmt.Sscanf(dims, "%d %d", &width, &height); err != nil {
		return 0, 0, nil, errors.Wrap(err, "pfm: parse dimensions")
	}
	scaleLine, err := readLine()
	if err != nil {
		return 0, 0, nil, errors.Wrap(err, "pfm: parse header")
	}
	scale, err := strconv.ParseFloat(scaleLine, 64)
	if err != nil {
		return 0, 0, nil, errors.Wrap(err, "pfm: parse scale")
	}
	if width <= 0 || height <= 0 {
		return 0, 0, nil, errors.Errorf("pfm: invalid dimensions %dx%d", width, height)
	}
	byteOrder := binary.ByteOrder(binary.LittleEndian)
	if scale > 0 {
		byteOrder = binary.BigEndian
	}
	data = make([]float32, width*height)
	row := make([]byte, width*4)
	for y := height - 1; y >= 0; y-- {
		if _, err := io.ReadFull(br, row); err != nil {
			return 0, 0, nil, errors.Wrap(err, "pfm: read data")
		}
		for x := 0; x < width; x++ {
			data[y*width+x] = math.Float32frombits(byteOrder.Uint32(row[x*4:]))
		}
	}
	return width, height, data, nil
}
