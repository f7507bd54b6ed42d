package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// 开发辅助工具：生成 bcrypt 密码哈希，用于向测试库手工插入账号。
// 用法：go run ./cmd <明文密码>
func main() {
	plainPassword := "123456"
	if len(os.Args) > 1 {
		plainPassword = os.Args[1]
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("加密失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("明文密码: %s\n", plainPassword)
	fmt.Printf("密码哈希: %s\n", string(hashedPassword))
}
