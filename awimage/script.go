package awimage

// Lua scripting over a loaded firmware image. Scripts get the scan engine's
// results as plain tables plus raw access to the buffer, so one-off vendor
// quirks can be carved without teaching the registry about them.

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"

	lua "github.com/yuin/gopher-lua"
)

// Tracking data for one script run. The image is read-only; the only side
// effects a script can have are files written through save().
type ExtractState struct {
	Data         []byte
	OutDirectory string
	Profile      *ScanProfile
	WrittenFiles []string
	cachedReport *Report
}

// Resolve a script-requested filename inside the output directory. Scripts
// can't escape it.
func (state *ExtractState) FilePath(path string) string {
	return filepath.Join(state.OutDirectory, filepath.Base(path))
}

// Lazily run the engine once per script, no matter how many times scan() or
// textblocks() is called.
func (state *ExtractState) Report() *Report {
	if state.cachedReport == nil {
		state.cachedReport = ScanImage(state.Data, state.Profile)
	}
	return state.cachedReport
}

// Add a function to the given lua state that actually tracks with our own
// state. Usually lua functions don't accept extra go parameters
func (state *ExtractState) AddFunction(name string, f func(*lua.LState, *ExtractState) int, L *lua.LState) {
	L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int { return f(L, state) }))
}

func artifactToTable(L *lua.LState, a *Artifact) *lua.LTable {
	t := L.CreateTable(0, 4)
	t.RawSetString("kind", lua.LString(a.Kind))
	t.RawSetString("offset", lua.LNumber(a.Offset))
	t.RawSetString("size", lua.LNumber(a.Size))
	t.RawSetString("name", lua.LString(a.Name))
	return t
}

// scan() -> array of {kind, offset, size, name}
func luaScan(L *lua.LState, state *ExtractState) int {
	report := state.Report()
	result := L.CreateTable(len(report.Artifacts), 0)
	for i := range report.Artifacts {
		result.Append(artifactToTable(L, &report.Artifacts[i]))
	}
	L.Push(result)
	return 1
}

// textblocks() -> array of {kind, offset, size, text} (normalized text)
func luaTextBlocks(L *lua.LState, state *ExtractState) int {
	report := state.Report()
	result := L.NewTable()
	addBlock := func(block *TextBlock) {
		t := L.CreateTable(0, 4)
		t.RawSetString("kind", lua.LString(block.Kind))
		t.RawSetString("offset", lua.LNumber(block.Offset))
		t.RawSetString("size", lua.LNumber(block.Size()))
		raw := block.Slice(state.Data)
		if block.Kind == KindProps {
			t.RawSetString("text", lua.LString(NormalizeProps(raw)))
		} else {
			t.RawSetString("text", lua.LString(NormalizeConfig(raw)))
		}
		result.Append(t)
	}
	for i := range report.Configs {
		addBlock(&report.Configs[i])
	}
	if report.Props != nil {
		addBlock(report.Props)
	}
	L.Push(result)
	return 1
}

// analyze() -> {uboot, kernel, android}
func luaAnalyze(L *lua.LState, state *ExtractState) int {
	analysis := state.Report().Analysis
	t := L.NewTable()
	set := func(key string, info *VersionInfo) {
		if info != nil {
			t.RawSetString(key, lua.LString(info.Text))
		}
	}
	set("uboot", analysis.Uboot)
	set("kernel", analysis.Kernel)
	set("android", analysis.Android)
	L.Push(t)
	return 1
}

// read(offset, length) -> string of raw bytes
func luaRead(L *lua.LState, state *ExtractState) int {
	offset := L.ToInt(1)
	length := L.ToInt(2)
	if offset < 0 || length < 0 || offset+length > len(state.Data) {
		L.RaiseError("read out of range: offset %d length %d (image is %d bytes)",
			offset, length, len(state.Data))
		return 0
	}
	L.Push(lua.LString(string(state.Data[offset : offset+length])))
	return 1
}

// save(filename, offset, length) writes a raw slice to the output directory
func luaSave(L *lua.LState, state *ExtractState) int {
	filename := L.ToString(1)
	offset := L.ToInt(2)
	length := L.ToInt(3)
	if offset < 0 || length <= 0 || offset+length > len(state.Data) {
		L.RaiseError("save out of range: offset %d length %d (image is %d bytes)",
			offset, length, len(state.Data))
		return 0
	}
	path := state.FilePath(filename)
	err := os.WriteFile(path, state.Data[offset:offset+length], 0644)
	if err != nil {
		L.RaiseError("Couldn't save %s: %s", path, err)
		return 0
	}
	state.WrittenFiles = append(state.WrittenFiles, path)
	log.Printf("Script saved %s (%d bytes at 0x%08x)\n", path, length, offset)
	return 0
}

// classify(name) -> vendor category for a library name
func luaClassify(L *lua.LState, state *ExtractState) int {
	L.Push(lua.LString(ClassifyLibrary(L.ToString(1))))
	return 1
}

// Function for lua scripts that lets you parse hex
func luaHex(L *lua.LState) int {
	hexstring := L.ToString(1)
	decoded, err := hex.DecodeString(hexstring)
	if err != nil {
		L.RaiseError("Error decoding hex in lua script: %s", err)
		return 0
	}
	L.Push(lua.LString(string(decoded)))
	return 1
}

// Function for lua scripts that lets you parse base64
func luaBase64(L *lua.LState) int {
	b64string := L.ToString(1)
	decoded, err := base64.StdEncoding.DecodeString(b64string)
	if err != nil {
		L.RaiseError("Error decoding base64 in lua script: %s", err)
		return 0
	}
	L.Push(lua.LString(string(decoded)))
	return 1
}

// Takes a number array and turns it into the general writable type (string)
func luaBytes(L *lua.LState) int {
	table := L.ToTable(1)
	typ := L.ToString(2)
	if table == nil {
		L.RaiseError("Error: must pass a table!")
		return 0
	}
	var buf bytes.Buffer
	var err error
	writebuf := func(d any) {
		err = binary.Write(&buf, binary.LittleEndian, d)
	}
	for i := 1; i <= table.Len(); i++ {
		lv := table.RawGetInt(i)
		num, ok := lv.(lua.LNumber)
		if !ok {
			L.RaiseError("Error: index %d must be a number!", i)
			return 0
		}
		raw := float64(num)
		switch typ {
		case "uint32":
			writebuf(uint32(raw))
		case "int32":
			writebuf(int32(raw))
		case "uint16":
			writebuf(uint16(raw))
		case "int16":
			writebuf(int16(raw))
		case "uint8":
			writebuf(uint8(raw))
		case "int8":
			writebuf(int8(raw))
		case "byte", "":
			writebuf(byte(raw))
		default:
			L.RaiseError("Unknown type: %s", typ)
			return 0
		}
		if err != nil {
			L.RaiseError("Error converting array to bytes: %s", err)
			return 0
		}
	}
	L.Push(lua.LString(buf.String()))
	return 1
}

// Simple function to decode a json string into a lua table. Returns the table.
// Raises script error on any error.
func luaJson(L *lua.LState) int {
	str := L.ToString(1)
	var value interface{}
	err := json.Unmarshal([]byte(str), &value)
	if err != nil {
		L.RaiseError("Couldn't parse json: %s", err)
		return 0
	}
	L.Push(luaDecodeValue(L, value))
	return 1
}

// Simple function to decode a toml string into a lua table. Returns the table.
func luaToml(L *lua.LState) int {
	str := L.ToString(1)
	var value interface{}
	err := toml.Unmarshal([]byte(str), &value)
	if err != nil {
		L.RaiseError("Couldn't parse toml: %s", err)
		return 0
	}
	L.Push(luaDecodeValue(L, value))
	return 1
}

// DecodeValue converts the value to a Lua value.
// Taken from https://github.com/layeh/gopher-json
// This function only converts values that the encoding/json package decodes to.
// All other values will return lua.LNil.
func luaDecodeValue(L *lua.LState, value interface{}) lua.LValue {
	switch converted := value.(type) {
	case bool:
		return lua.LBool(converted)
	case float64:
		return lua.LNumber(converted)
	case int64: // NOTE: wasn't needed for json, needed for toml
		return lua.LNumber(converted)
	case string:
		return lua.LString(converted)
	case json.Number:
		return lua.LString(converted)
	case []interface{}:
		arr := L.CreateTable(len(converted), 0)
		for _, item := range converted {
			arr.Append(luaDecodeValue(L, item))
		}
		return arr
	case map[string]interface{}:
		tbl := L.CreateTable(0, len(converted))
		for key, item := range converted {
			tbl.RawSetH(lua.LString(key), luaDecodeValue(L, item))
		}
		return tbl
	case nil:
		return lua.LNil
	}
	return lua.LNil
}

func setBasicLuaFunctions(L *lua.LState) {
	L.SetGlobal("hex", L.NewFunction(luaHex))
	L.SetGlobal("base64", L.NewFunction(luaBase64))
	L.SetGlobal("json", L.NewFunction(luaJson))
	L.SetGlobal("toml", L.NewFunction(luaToml))
	L.SetGlobal("bytes", L.NewFunction(luaBytes))
}

// Run a lua extraction script against a loaded image. Returns the list of
// files the script wrote.
func RunLuaExtractor(script string, data []byte, outdir string, p *ScanProfile) ([]string, error) {
	state := ExtractState{
		Data:         data,
		OutDirectory: outdir,
		Profile:      p,
		WrittenFiles: make([]string, 0),
	}
	if err := os.MkdirAll(outdir, 0770); err != nil {
		return nil, err
	}

	L := lua.NewState()
	defer L.Close()

	setBasicLuaFunctions(L)
	state.AddFunction("scan", luaScan, L)
	state.AddFunction("textblocks", luaTextBlocks, L)
	state.AddFunction("analyze", luaAnalyze, L)
	state.AddFunction("read", luaRead, L)
	state.AddFunction("save", luaSave, L)
	state.AddFunction("classify", luaClassify, L)

	err := L.DoString(script)
	if err != nil {
		return nil, err
	}
	return state.WrittenFiles, nil
}
