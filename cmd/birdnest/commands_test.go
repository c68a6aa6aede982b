package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v2"
)

func writeSource(t *testing.T, program ...string) (path string) {
	path = filepath.Join(t.TempDir(), "program.bn")
	err := os.WriteFile(path, []byte(strings.Join(program, "\n")), OutFilePerm)
	if err != nil {
		t.Fatal(err)
	}
	return
}

func TestAsm(t *testing.T) {
	assert := assert.New(t)

	source := writeSource(t,
		"mov ax, VALUE",
		"ste",
		"hlt",
	)
	output := filepath.Join(t.TempDir(), "program.bin")

	err := newApp().Run([]string{"birdnest", "asm", "-D", "VALUE=0x1234", "-o", output, source})
	assert.NoError(err)

	data, err := os.ReadFile(output)
	assert.NoError(err)
	assert.Equal([]byte{0x08, 0x34, 0x12, 0x10, 0x02}, data)
}

func TestAsm_Errors(t *testing.T) {
	assert := assert.New(t)

	source := writeSource(t, "mov ex, 1")
	output := filepath.Join(t.TempDir(), "program.bin")

	table := [](struct {
		name string
		args []string
	}){
		{"syntax", []string{"birdnest", "asm", "-o", output, source}},
		{"define", []string{"birdnest", "asm", "-D", "=1", "-o", output}},
		{"missing", []string{"birdnest", "asm", "-o", output, source + ".none"}},
		{"extra", []string{"birdnest", "asm", "-o", output, source, source}},
	}

	for _, entry := range table {
		err := newApp().Run(entry.args)
		assert.Error(err, entry.name)
	}

	_, err := os.Stat(output)
	assert.True(os.IsNotExist(err))
}

func TestRun_Example(t *testing.T) {
	assert := assert.New(t)

	err := newApp().Run([]string{"birdnest", "run"})
	assert.NoError(err)
}

func TestRun_Fault(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		program []string
	}){
		{"flag_conflict", []string{"sth", "stl", "mov ax, 1", "hlt"}},
		{"no_halt", []string{"mov ax, 4", "ste"}},
	}

	exited := -999
	defer func(exiter func(int)) { cli.OsExiter = exiter }(cli.OsExiter)
	cli.OsExiter = func(code int) { exited = code }

	for _, entry := range table {
		source := writeSource(t, entry.program...)

		err := newApp().Run([]string{"birdnest", "run", source})

		var exit cli.ExitCoder
		if assert.True(errors.As(err, &exit), entry.name) {
			assert.Equal(-1, exit.ExitCode(), entry.name)
		}
		assert.Equal(-999, exited, entry.name)
	}
}
