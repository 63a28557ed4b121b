package resolver

// stdlibModules lists Python standard library top-level module names used to
// classify non-project absolute imports as builtin rather than external.
// Coverage is intentionally the commonly seen set, not an exhaustive one.
var stdlibModules = map[string]bool{
	"abc": true, "argparse": true, "array": true, "ast": true, "asyncio": true,
	"base64": true, "bisect": true, "builtins": true, "collections": true,
	"concurrent": true, "contextlib": true, "copy": true, "csv": true,
	"ctypes": true, "dataclasses": true, "datetime": true, "decimal": true,
	"difflib": true, "email": true, "enum": true, "errno": true,
	"functools": true, "gc": true, "getpass": true, "glob": true,
	"gzip": true, "hashlib": true, "heapq": true, "hmac": true, "html": true,
	"http": true, "importlib": true, "inspect": true, "io": true,
	"itertools": true, "json": true, "logging": true, "math": true,
	"mimetypes": true, "multiprocessing": true, "operator": true, "os": true,
	"pathlib": true, "pickle": true, "platform": true, "pprint": true,
	"queue": true, "random": true, "re": true, "secrets": true,
	"select": true, "shlex": true, "shutil": true, "signal": true,
	"socket": true, "sqlite3": true, "ssl": true, "stat": true,
	"statistics": true, "string": true, "struct": true, "subprocess": true,
	"sys": true, "sysconfig": true, "tempfile": true, "textwrap": true,
	"threading": true, "time": true, "traceback": true, "types": true,
	"typing": true, "unicodedata": true, "unittest": true, "urllib": true,
	"uuid": true, "venv": true, "warnings": true, "weakref": true,
	"xml": true, "zipfile": true, "zlib": true, "__future__": true,
}

// IsStandardLibrary reports whether the top-level segment of a dotted module
// path names a Python standard library module.
func IsStandardLibrary(module string) bool {
	for i := 0; i < len(module); i++ {
		if module[i] == '.' {
			return stdlibModules[module[:i]]
		}
	}
	return stdlibModules[module]
}
