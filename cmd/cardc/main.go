// cardc: 관리 서버 없이 프로필 파일을 카드 아티팩트로 만드는 도구
package main

import (
	"fmt"
	"io"
	"os"
)

const usage = `Usage: cardc <command> [flags]

Commands:
  compile   profile file -> <out>/index.html
  export    profile list -> zip archive
  vcard     profile file -> .vcf
  inspect   index.html -> embedded card config (JSON)
  hashpass  bcrypt hash for ADMIN_PASS_HASH (or verify one)
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "compile":
		err = runCompile(args[1:], stdout)
	case "export":
		err = runExport(args[1:], stdout, stderr)
	case "vcard":
		err = runVCard(args[1:], stdout)
	case "inspect":
		err = runInspect(args[1:], stdout)
	case "hashpass":
		err = runHashPass(args[1:], stdout)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "cardc %s: %v\n", args[0], err)
		return 1
	}
	return 0
}
