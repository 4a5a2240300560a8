package ndax

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"testing"

	"example.com/ndagate/internal/record"
)

type fakeArchive struct {
	names []string
	files map[string][]byte
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{files: make(map[string][]byte)}
}

func (a *fakeArchive) add(name string, data []byte) {
	a.names = append(a.names, name)
	a.files[name] = data
}

func (a *fakeArchive) Names() []string { return a.names }

func (a *fakeArchive) ReadFile(name string) ([]byte, error) {
	b, ok := a.files[name]
	if !ok {
		return nil, fmt.Errorf("no member %s", name)
	}
	return b, nil
}

const pageSize = 4096

// buildMergedNDC builds a version 5 chunk with one main record and one
// embedded aux sub-record.
func buildMergedNDC() []byte {
	buf := make([]byte, 2*pageSize)
	buf[2] = 5
	page := buf[pageSize:]

	main := page[125 : 125+87]
	main[7] = 0x55
	binary.LittleEndian.PutUint32(main[8:12], 1)
	main[16] = 1
	main[17] = 1
	binary.LittleEndian.PutUint64(main[23:31], 1000)
	binary.LittleEndian.PutUint32(main[31:35], 36000)
	binary.LittleEndian.PutUint32(main[82:86], 10)

	aux := page[125+87 : 125+2*87]
	aux[7] = 0x74
	aux[3] = 9
	binary.LittleEndian.PutUint32(aux[8:12], 1)
	binary.LittleEndian.PutUint16(aux[41:43], 250)
	return buf
}

// buildAuxNDC builds a version 5 chunk carrying only aux sub-records.
func buildAuxNDC(temp int16) []byte {
	buf := make([]byte, 2*pageSize)
	buf[2] = 5
	page := buf[pageSize:]

	aux := page[125 : 125+87]
	aux[7] = 0x74
	aux[3] = 9 // embedded channel id, overridden by the member name
	binary.LittleEndian.PutUint32(aux[8:12], 1)
	binary.LittleEndian.PutUint32(aux[31:35], 36000)
	binary.LittleEndian.PutUint16(aux[41:43], uint16(temp))
	return buf
}

func buildSplitData() []byte {
	buf := make([]byte, 2*pageSize)
	buf[2] = 6
	page := buf[pageSize:]
	binary.LittleEndian.PutUint32(page[132:136], math.Float32bits(36000))
	binary.LittleEndian.PutUint32(page[136:140], math.Float32bits(1500))
	binary.LittleEndian.PutUint32(page[140:144], math.Float32bits(37000))
	binary.LittleEndian.PutUint32(page[144:148], math.Float32bits(1500))
	return buf
}

func buildSplitRunInfo() []byte {
	buf := make([]byte, 2*pageSize)
	buf[2] = 6
	page := buf[pageSize:]
	putRow := func(slot int, index int32, elapsedMs int32, ts int64) {
		s := page[132+47*slot:]
		binary.LittleEndian.PutUint32(s[0:4], uint32(elapsedMs))
		binary.LittleEndian.PutUint32(s[5:9], math.Float32bits(3600))
		binary.LittleEndian.PutUint32(s[33:37], uint32(int32(ts)))
		binary.LittleEndian.PutUint32(s[37:41], 5) // raw step number
		binary.LittleEndian.PutUint32(s[41:45], uint32(index))
	}
	putRow(0, 1, 10000, 1700000000)
	putRow(1, 2, 20000, 1700000010)
	return buf
}

func buildSplitStep() []byte {
	buf := make([]byte, 2*pageSize)
	buf[2] = 6
	page := buf[pageSize:]
	s := page[132:]
	binary.LittleEndian.PutUint32(s[0:4], 0) // cycle
	binary.LittleEndian.PutUint32(s[4:8], 1) // step index
	s[24] = 1
	return buf
}

const versionInfoXML2312 = `<?xml version="1.0" encoding="GB2312"?>
<root><config><ZwjVersion SvrVer="BTS Server 8.0" CurrClientVer="BTS Client 8.0" ZwjVersion="ZWJ 1.0" MainXwjVer="XWJ 1.0"/></config></root>`

const stepXML2312 = `<?xml version="1.0" encoding="GB2312"?>
<root><config><Head_Info><SCQ Value="2500"/></Head_Info></config></root>`

func TestDecodeMerged(t *testing.T) {
	ar := newFakeArchive()
	ar.add("VersionInfo.xml", []byte(versionInfoXML2312))
	ar.add("Step.xml", []byte(stepXML2312))
	ar.add("data.ndc", buildMergedNDC())
	ar.add("data_3.ndc", buildAuxNDC(250))

	res, err := NewDecoder().Decode(ar)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	if res.Meta.ServerVersion != "BTS Server 8.0" {
		t.Fatalf("server version = %q", res.Meta.ServerVersion)
	}
	if res.Meta.ClientVersion != "BTS Client 8.0" {
		t.Fatalf("client version = %q", res.Meta.ClientVersion)
	}
	if res.Meta.ActiveMass != 2.5 {
		t.Fatalf("active mass = %g, want 2.5", res.Meta.ActiveMass)
	}

	if len(res.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(res.Records))
	}
	if res.Records[0].Status != record.StatusCCChg {
		t.Fatalf("status = %q", res.Records[0].Status)
	}

	// Only the numbered member contributes aux rows, tagged with the channel
	// from its name rather than the embedded id.
	if len(res.Aux) != 1 {
		t.Fatalf("aux = %d, want 1", len(res.Aux))
	}
	if res.Aux[0].Channel != 3 {
		t.Fatalf("aux channel = %d, want 3", res.Aux[0].Channel)
	}
	if res.Aux[0].Temperature != 25.0 {
		t.Fatalf("aux temperature = %g, want 25", res.Aux[0].Temperature)
	}
}

func TestDecodeSplit(t *testing.T) {
	ar := newFakeArchive()
	ar.add("data.ndc", buildSplitData())
	ar.add("data_runInfo.ndc", buildSplitRunInfo())
	ar.add("data_step.ndc", buildSplitStep())

	res, err := NewDecoder().Decode(ar)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(res.Records))
	}
	r := res.Records[0]
	if r.Index != 1 {
		t.Fatalf("Index = %d, want 1", r.Index)
	}
	if r.Time != 10.0 {
		t.Fatalf("Time = %g, want 10", r.Time)
	}
	if math.Abs(float64(r.Voltage)-3.6) > 1e-5 {
		t.Fatalf("Voltage = %g, want 3.6", r.Voltage)
	}
	if r.ChargeCapacity != 1.0 {
		t.Fatalf("ChargeCapacity = %g, want 1", r.ChargeCapacity)
	}
	if r.Status != record.StatusCCChg || r.Cycle != 1 || r.Step != 1 {
		t.Fatalf("joined fields = %+v", r)
	}
	if r.Timestamp.Unix() != 1700000000 {
		t.Fatalf("Timestamp = %v", r.Timestamp)
	}
	if res.Records[1].Time != 20.0 {
		t.Fatalf("Time[1] = %g, want 20", res.Records[1].Time)
	}
}

func TestDecodeMissingData(t *testing.T) {
	ar := newFakeArchive()
	ar.add("VersionInfo.xml", []byte(versionInfoXML2312))
	_, err := NewDecoder().Decode(ar)
	if !errors.Is(err, ErrMissingData) {
		t.Fatalf("expected ErrMissingData, got %v", err)
	}
}
