package manifest

// stdlibModules is the set of Python standard library top-level modules
// relevant to import verification. Imports of these never require a
// manifest entry because they ship with the base runtime image.
//
// The list covers the stdlib of the CPython versions the default base
// images provide. It does not need to be exhaustive forever: an unknown
// stdlib module would produce a false "missing dependency" report, which
// is a visible, fixable failure rather than a silent one.
var stdlibModules = map[string]bool{
	"abc": true, "argparse": true, "array": true, "ast": true,
	"asyncio": true, "atexit": true, "base64": true, "binascii": true,
	"bisect": true, "builtins": true, "bz2": true, "calendar": true,
	"cmath": true, "codecs": true, "collections": true, "concurrent": true,
	"configparser": true, "contextlib": true, "contextvars": true,
	"copy": true, "csv": true, "ctypes": true, "dataclasses": true,
	"datetime": true, "decimal": true, "difflib": true, "dis": true,
	"email": true, "enum": true, "errno": true, "faulthandler": true,
	"filecmp": true, "fileinput": true, "fnmatch": true, "fractions": true,
	"functools": true, "gc": true, "getopt": true, "getpass": true,
	"gettext": true, "glob": true, "graphlib": true, "gzip": true,
	"hashlib": true, "heapq": true, "hmac": true, "html": true,
	"http": true, "importlib": true, "inspect": true, "io": true,
	"ipaddress": true, "itertools": true, "json": true, "keyword": true,
	"linecache": true, "locale": true, "logging": true, "lzma": true,
	"math": true, "mimetypes": true, "multiprocessing": true,
	"numbers": true, "operator": true, "os": true, "pathlib": true,
	"pickle": true, "platform": true, "plistlib": true, "pprint": true,
	"pstats": true, "pty": true, "pwd": true, "py_compile": true,
	"queue": true, "quopri": true, "random": true, "re": true,
	"reprlib": true, "resource": true, "secrets": true, "select": true,
	"selectors": true, "shelve": true, "shlex": true, "shutil": true,
	"signal": true, "site": true, "socket": true, "socketserver": true,
	"sqlite3": true, "ssl": true, "stat": true, "statistics": true,
	"string": true, "stringprep": true, "struct": true, "subprocess": true,
	"sys": true, "sysconfig": true, "tarfile": true, "tempfile": true,
	"textwrap": true, "threading": true, "time": true, "timeit": true,
	"tkinter": true, "token": true, "tokenize": true, "tomllib": true,
	"traceback": true, "types": true, "typing": true, "unicodedata": true,
	"unittest": true, "urllib": true, "uuid": true, "venv": true,
	"warnings": true, "wave": true, "weakref": true, "webbrowser": true,
	"xml": true, "xmlrpc": true, "zipfile": true, "zipimport": true,
	"zlib": true, "zoneinfo": true,
	// Dunder module attributes occasionally appear in import position
	// via "from __future__ import annotations".
	"__future__": true, "__main__": true,
}

// IsStdlibModule reports whether the given top-level module name belongs
// to the Python standard library.
func IsStdlibModule(name string) bool {
	return stdlibModules[name]
}
