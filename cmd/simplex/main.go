// Command simplex 是单纯形法线性规划求解器的命令行入口，既可直接求解，也可启动 HTTP 服务。
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
