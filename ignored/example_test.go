package ignored_test

import (
	"fmt"
	"regexp"

	"github.com/shuakami/watcher/v2/ignored"
)

func ExampleCompile() {
	pred, err := ignored.Compile(ignored.List(
		ignored.Regexp(regexp.MustCompile(`\.ignore$`)),
		ignored.Glob("**/temp/**"),
		ignored.Glob("**/.cache"),
	))
	if err != nil {
		fmt.Println("bad config:", err)
		return
	}

	for _, path := range []string{
		"file.ignore",
		"path/temp/file.js",
		"path/tempo/file.js",
		`project\.cache\file`,
		"src/index.js",
	} {
		fmt.Printf("%-20s %v\n", path, pred.Match(path))
	}

	// Output:
	// file.ignore          true
	// path/temp/file.js    true
	// path/tempo/file.js   false
	// project\.cache\file  true
	// src/index.js         false
}

func ExampleCompile_absent() {
	pred, err := ignored.Compile(ignored.Ignored{})
	fmt.Println(pred == nil, err, pred.Match("anything"))
	// Output: true <nil> false
}

func ExampleTranslateGlob() {
	source, _, _ := ignored.TranslateGlob("node_modules/")
	fmt.Println(source)
	// Output: ^node_modules(?:$|/)
}

func ExampleFromValue() {
	spec, err := ignored.FromValue([]any{"dist", map[string]any{"regexp": `\.tmp$`}})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(spec)

	_, err = ignored.FromValue(42)
	fmt.Println(err)
	// Output:
	// ["dist", /\.tmp$/]
	// invalid option for 'ignored': unsupported type int (42)
}
